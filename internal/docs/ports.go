package docs

// Extractor converts a stored document into plain text.
type Extractor interface {
	ExtractText(path string) (string, error)
}
