package rag

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDuckDuckGo(handler http.HandlerFunc) (*DuckDuckGo, *httptest.Server) {
	ts := httptest.NewServer(handler)
	return &DuckDuckGo{
		baseURL: ts.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}, ts
}

func TestDuckDuckGoSearchAbstractAndTopics(t *testing.T) {
	d, ts := newTestDuckDuckGo(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "best sushi", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Write([]byte(`{
			"AbstractText": "Sushi is a Japanese dish.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Sushi",
			"RelatedTopics": [
				{"Text": "Sashimi", "FirstURL": "https://example.com/sashimi"},
				{"Topics": [
					{"Text": "Nigiri", "FirstURL": "https://example.com/nigiri"}
				]}
			]
		}`))
	})
	defer ts.Close()

	results, err := d.Search(context.Background(), "best sushi", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Sushi is a Japanese dish.", results[0].Body)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Sushi", results[0].Href)
	assert.Equal(t, "Sashimi", results[1].Body)
	assert.Equal(t, "Nigiri", results[2].Body)
}

func TestDuckDuckGoSearchCapsResults(t *testing.T) {
	d, ts := newTestDuckDuckGo(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"RelatedTopics": [
				{"Text": "a", "FirstURL": "u1"},
				{"Text": "b", "FirstURL": "u2"},
				{"Text": "c", "FirstURL": "u3"},
				{"Text": "d", "FirstURL": "u4"}
			]
		}`))
	})
	defer ts.Close()

	results, err := d.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDuckDuckGoSearchEmptyResponse(t *testing.T) {
	d, ts := newTestDuckDuckGo(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"AbstractText": "", "RelatedTopics": []}`))
	})
	defer ts.Close()

	results, err := d.Search(context.Background(), "q", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDuckDuckGoSearchServerError(t *testing.T) {
	d, ts := newTestDuckDuckGo(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer ts.Close()

	_, err := d.Search(context.Background(), "q", 3)
	assert.Error(t, err)
}
