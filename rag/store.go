package rag

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

const (
	// DefaultBatchSize bounds peak memory and network load during ingestion.
	// Batch boundaries carry no semantic meaning; results are identical for
	// any batch size.
	DefaultBatchSize = 1000

	storeCollection = "menu"
)

// Retriever is the read side of the vector store as seen by the engine.
type Retriever interface {
	// SearchWithScores embeds the query and returns up to k documents with
	// relevance scores in [0,1], most relevant first.
	SearchWithScores(ctx context.Context, query string, k int) ([]RetrievalResult, error)
}

// DocumentStore persists embedded chunks in a chromem collection backed by
// an on-disk directory. It is opened once per process and is safe for
// concurrent readers; the ingestion pipeline is the only writer and runs
// out-of-band with exclusive access to the directory.
type DocumentStore struct {
	db   *chromem.DB
	col  *chromem.Collection
	path string
}

// OpenStore opens (or creates) the persistent store at path. The embedding
// function is owned by the collection, so the builder and the query service
// embed text identically.
func OpenStore(path string, embed chromem.EmbeddingFunc) (*DocumentStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", path, err)
	}

	col, err := db.GetOrCreateCollection(storeCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", storeCollection, err)
	}

	return &DocumentStore{db: db, col: col, path: path}, nil
}

// CreateStore removes any pre-existing store at path and opens a fresh one.
// Ingestion is not incremental: rebuilding fully replaces the index.
func CreateStore(path string, embed chromem.EmbeddingFunc) (*DocumentStore, error) {
	if _, err := os.Stat(path); err == nil {
		GlobalLogger.Info("clearing existing store", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to clear store at %s: %w", path, err)
		}
	}
	return OpenStore(path, embed)
}

// Add inserts chunks in fixed-size batches. Each chunk becomes one stored
// document with a fresh id; embeddings are computed through the collection's
// embedding function.
func (s *DocumentStore) Add(ctx context.Context, chunks []Chunk, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:       uuid.NewString(),
			Content:  chunk.Text,
			Metadata: chunk.Metadata,
		}
	}

	totalBatches := (len(docs) + batchSize - 1) / batchSize
	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		if err := s.col.AddDocuments(ctx, batch, runtime.NumCPU()); err != nil {
			return fmt.Errorf("failed to insert batch %d/%d: %w", start/batchSize+1, totalBatches, err)
		}
		GlobalLogger.Info("inserted batch", "batch", start/batchSize+1, "of", totalBatches, "documents", len(batch))
	}

	return nil
}

// SearchWithScores implements Retriever. The query is embedded through the
// collection's embedding function; k is clamped to the collection size
// because chromem rejects requests for more results than stored documents.
func (s *DocumentStore) SearchWithScores(ctx context.Context, query string, k int) ([]RetrievalResult, error) {
	if n := s.col.Count(); k > n {
		k = n
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := s.col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search store: %w", err)
	}

	retrieved := make([]RetrievalResult, len(results))
	for i, result := range results {
		retrieved[i] = RetrievalResult{
			Document: Document{
				Text:     result.Content,
				Metadata: result.Metadata,
			},
			Score: float64(result.Similarity),
		}
	}

	return retrieved, nil
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count() int {
	return s.col.Count()
}

// Path returns the on-disk location of the store.
func (s *DocumentStore) Path() string {
	return s.path
}
