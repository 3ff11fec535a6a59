package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTextMissingFile(t *testing.T) {
	e := NewPDFExtractor()

	_, err := e.ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}

func TestExtractTextRejectsNonPDF(t *testing.T) {
	e := NewPDFExtractor()

	path := filepath.Join(t.TempDir(), "not-a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text, no PDF header"), 0o600))

	_, err := e.ExtractText(path)
	require.Error(t, err)
}
