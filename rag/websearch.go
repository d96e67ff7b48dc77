package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// WebSearcher finds text snippets on the public web. Implementations return
// errors to the caller; the engine decides how to degrade.
type WebSearcher interface {
	// Search returns up to maxResults hits for the query.
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// DuckDuckGo implements WebSearcher over the DuckDuckGo Instant Answer API.
// No API key is required.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo searcher with a sensible timeout.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		baseURL: "https://api.duckduckgo.com",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Search implements WebSearcher. The abstract, when present, counts as the
// first result; related topics fill the rest.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
	if maxResults <= 0 {
		maxResults = 3
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("web search failed: %s", resp.Status)
	}

	var payload ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	var results []WebResult
	if payload.AbstractText != "" {
		results = append(results, WebResult{Body: payload.AbstractText, Href: payload.AbstractURL})
	}
	results = appendTopics(results, payload.RelatedTopics, maxResults)

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// appendTopics flattens the nested topic groups DuckDuckGo returns for
// categorized results.
func appendTopics(results []WebResult, topics []ddgTopic, maxResults int) []WebResult {
	for _, topic := range topics {
		if len(results) >= maxResults {
			break
		}
		if len(topic.Topics) > 0 {
			results = appendTopics(results, topic.Topics, maxResults)
			continue
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, WebResult{Body: topic.Text, Href: topic.FirstURL})
	}
	return results
}
