package rag

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/philippgille/chromem-go"
)

// menuColumns are the columns a cleaned menu CSV must provide. Ingestion
// aborts when any of them is absent.
var menuColumns = []string{
	"restaurant_name",
	"menu_category",
	"menu_item",
	"menu_description",
	"ingredient_name",
	"city",
	"state",
	"rating",
	"price",
}

// metadataColumns are the structured fields carried onto every chunk.
var metadataColumns = []string{
	"restaurant_name",
	"menu_category",
	"city",
	"state",
	"rating",
	"price",
}

// LoadMenuCSV reads a cleaned menu CSV and builds one document per row: a
// textual description of the row plus a metadata record of its structured
// fields.
func LoadMenuCSV(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range menuColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q in %s", col, path)
		}
	}

	var docs []Document
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		get := func(col string) string { return row[index[col]] }

		text := fmt.Sprintf(
			"Restaurant: %s | Category: %s | Item: %s | Description: %s | Ingredients: %s | Location: %s, %s | Rating: %s | Price: %s",
			get("restaurant_name"), get("menu_category"), get("menu_item"),
			get("menu_description"), get("ingredient_name"),
			get("city"), get("state"), get("rating"), get("price"),
		)

		metadata := make(map[string]string, len(metadataColumns))
		for _, col := range metadataColumns {
			metadata[col] = get(col)
		}

		docs = append(docs, Document{Text: text, Metadata: metadata})
	}

	GlobalLogger.Info("processed CSV rows", "path", path, "documents", len(docs))
	return docs, nil
}

// IngestOptions configures a store rebuild.
type IngestOptions struct {
	// CSVPath locates the cleaned menu CSV (required).
	CSVPath string
	// DocsDir optionally holds extra .pdf/.txt documents to index
	// alongside the menu data.
	DocsDir string
	// StorePath is the target store directory; any existing store there is
	// replaced.
	StorePath string
	// ChunkSize and ChunkOverlap configure the chunker; zero values use
	// the chunker defaults.
	ChunkSize    int
	ChunkOverlap int
	// Counter measures chunk size; nil means characters.
	Counter TokenCounter
	// BatchSize bounds insertion batches; zero means DefaultBatchSize.
	BatchSize int
}

// BuildStore runs the full ingestion pipeline: load documents, chunk them,
// clear the target store, and insert in batches. Rerunning on unchanged
// input with unchanged parameters yields a store with the same chunk count.
func BuildStore(ctx context.Context, opts IngestOptions, embed chromem.EmbeddingFunc) (*DocumentStore, error) {
	docs, err := LoadMenuCSV(opts.CSVPath)
	if err != nil {
		return nil, err
	}

	if opts.DocsDir != "" {
		extra, err := LoadDocumentsDir(opts.DocsDir)
		if err != nil {
			return nil, err
		}
		docs = append(docs, extra...)
	}

	chunks, err := ChunkDocuments(docs, opts)
	if err != nil {
		return nil, err
	}
	GlobalLogger.Info("created chunks", "count", len(chunks))

	store, err := CreateStore(opts.StorePath, embed)
	if err != nil {
		return nil, err
	}
	if err := store.Add(ctx, chunks, opts.BatchSize); err != nil {
		return nil, err
	}

	GlobalLogger.Info("store created", "path", opts.StorePath, "documents", store.Count())
	return store, nil
}

// ChunkDocuments splits every document with a chunker built from the
// options. Split out of BuildStore so the chunk count can be computed
// without touching a store.
func ChunkDocuments(docs []Document, opts IngestOptions) ([]Chunk, error) {
	var chunkerOpts []TextChunkerOption
	if opts.ChunkSize > 0 {
		chunkerOpts = append(chunkerOpts, ChunkSize(opts.ChunkSize))
	}
	if opts.ChunkOverlap > 0 {
		chunkerOpts = append(chunkerOpts, ChunkOverlap(opts.ChunkOverlap))
	}
	if opts.Counter != nil {
		chunkerOpts = append(chunkerOpts, WithTokenCounter(opts.Counter))
	}

	chunker, err := NewTextChunker(chunkerOpts...)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunker.Chunk(doc)...)
	}
	return chunks, nil
}
