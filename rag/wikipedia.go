package rag

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// noWikiData is written when a term has no Wikipedia page or the
	// lookup fails.
	noWikiData = "No Wikipedia data available"
	// wikiSummaryLimit caps each stored summary.
	wikiSummaryLimit = 500

	wikiUserAgent = "menubot-augmenter/1.0"
)

// DefaultWikiColumns are the CSV columns enriched with Wikipedia summaries
// when no explicit selection is given.
var DefaultWikiColumns = []string{
	"menu_category",
	"menu_item",
	"ingredient_name",
	"city",
	"state",
}

// WikipediaAugmenter enriches a menu CSV with page summaries for selected
// columns. Lookups run on a bounded worker pool behind a rate limiter, and
// repeated terms are served from an in-memory cache.
type WikipediaAugmenter struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	workers int

	mu    sync.Mutex
	cache map[string]string
}

// NewWikipediaAugmenter creates an augmenter with 10 workers and a matching
// request rate cap, enough to stay under the API's limits.
func NewWikipediaAugmenter() *WikipediaAugmenter {
	return &WikipediaAugmenter{
		baseURL: "https://en.wikipedia.org/api/rest_v1",
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		workers: 10,
		cache:   make(map[string]string),
	}
}

// Summary fetches the page summary for a term, truncated to the storage
// limit. Missing pages and lookup failures yield the placeholder value.
func (a *WikipediaAugmenter) Summary(ctx context.Context, term string) string {
	a.mu.Lock()
	if cached, ok := a.cache[term]; ok {
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	summary, err := a.fetchSummary(ctx, term)
	if err != nil {
		GlobalLogger.Warn("wikipedia lookup failed", "term", term, "error", err)
		summary = noWikiData
	}

	a.mu.Lock()
	a.cache[term] = summary
	a.mu.Unlock()
	return summary
}

func (a *WikipediaAugmenter) fetchSummary(ctx context.Context, term string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/page/summary/%s", a.baseURL, url.PathEscape(term))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", wikiUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return noWikiData, nil
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("summary request failed: %s", resp.Status)
	}

	var payload struct {
		Extract string `json:"extract"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Extract == "" {
		return noWikiData, nil
	}

	runes := []rune(payload.Extract)
	if len(runes) > wikiSummaryLimit {
		runes = runes[:wikiSummaryLimit]
	}
	return string(runes), nil
}

// AugmentCSV reads the CSV at path, appends a "<col>_wiki_summary" column
// for every selected column present in the header, and writes the result
// next to the input as "<name>_wiki_augmented.csv". Returns the output
// path.
func (a *WikipediaAugmenter) AugmentCSV(ctx context.Context, path string, columns []string) (string, error) {
	if len(columns) == 0 {
		columns = DefaultWikiColumns
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to read CSV %s: %w", path, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("CSV %s is empty", path)
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	for _, col := range columns {
		colIdx, ok := index[col]
		if !ok {
			GlobalLogger.Warn("column not found, skipping", "column", col)
			continue
		}

		GlobalLogger.Info("augmenting column", "column", col, "rows", len(rows)-1)
		summaries := a.summarizeColumn(ctx, rows[1:], colIdx)

		rows[0] = append(rows[0], col+"_wiki_summary")
		for i := 1; i < len(rows); i++ {
			rows[i] = append(rows[i], summaries[i-1])
		}
	}

	outPath := strings.TrimSuffix(path, ".csv") + "_wiki_augmented.csv"
	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write output CSV: %w", err)
	}

	GlobalLogger.Info("wrote augmented CSV", "path", outPath)
	return outPath, nil
}

// summarizeColumn fetches summaries for one column across all rows using
// the worker pool. Workers write to distinct indices, so no locking is
// needed on the result slice.
func (a *WikipediaAugmenter) summarizeColumn(ctx context.Context, rows [][]string, colIdx int) []string {
	summaries := make([]string, len(rows))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summaries[i] = a.Summary(ctx, rows[i][colIdx])
			}
		}()
	}

	for i := range rows {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return summaries
}
