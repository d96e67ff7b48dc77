// Command menubot-ingest rebuilds the vector store from a cleaned menu CSV
// and optional supplemental documents.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/menudata/menubot/config"
	"github.com/menudata/menubot/rag"
)

func main() {
	csvPath := flag.String("csv", "", "path to the cleaned menu CSV (required)")
	docsDir := flag.String("docs", "", "optional directory of .pdf/.txt documents to index alongside the menu")
	storePath := flag.String("store", "", "target store directory (default from config)")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var level rag.LogLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	rag.SetGlobalLogLevel(level)

	if *csvPath == "" {
		log.Fatal("-csv is required")
	}
	if *storePath == "" {
		*storePath = cfg.StorePath
	}

	embed, err := rag.NewEmbeddingFunc(cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.EmbeddingAPIKey)
	if err != nil {
		log.Fatalf("failed to create embedding function: %v", err)
	}

	counter, err := rag.NewTokenCounter(cfg.Counter)
	if err != nil {
		log.Fatalf("failed to create token counter: %v", err)
	}

	store, err := rag.BuildStore(context.Background(), rag.IngestOptions{
		CSVPath:      *csvPath,
		DocsDir:      *docsDir,
		StorePath:    *storePath,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Counter:      counter,
		BatchSize:    cfg.BatchSize,
	}, embed)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}

	rag.GlobalLogger.Info("ingestion complete", "path", store.Path(), "documents", store.Count())
}
