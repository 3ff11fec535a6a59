package search

import "context"

// Result is one ranked search hit.
type Result struct {
	Title string
	Link  string
}

// Searcher is the web-search gateway.
type Searcher interface {
	Top(ctx context.Context, query string, n int) ([]Result, error)
}
