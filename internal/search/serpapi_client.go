package search

import (
	"context"
	"log"
	"os"
	"strings"

	serpapi "github.com/serpapi/google-search-results-golang"
)

type SerpApiClient struct {
	apiKey string
}

func NewSerpApiClient() *SerpApiClient {
	key := strings.TrimSpace(os.Getenv("SERP_API_KEY"))
	if key == "" {
		log.Fatal("SERP_API_KEY not set")
	}

	return &SerpApiClient{apiKey: key}
}

// Top returns up to n organic results for the query.
func (c *SerpApiClient) Top(ctx context.Context, query string, n int) ([]Result, error) {
	parameter := map[string]string{
		"engine": "google",
		"q":      query,
	}

	s := serpapi.NewGoogleSearch(parameter, c.apiKey)
	data, err := s.GetJSON()
	if err != nil {
		log.Println("[search] serpapi error:", err)
		return nil, err
	}

	organic, _ := data["organic_results"].([]interface{})

	out := make([]Result, 0, n)
	for _, item := range organic {
		if len(out) == n {
			break
		}
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		title, _ := entry["title"].(string)
		link, _ := entry["link"].(string)
		if title == "" {
			continue
		}
		out = append(out, Result{Title: title, Link: link})
	}

	return out, nil
}
