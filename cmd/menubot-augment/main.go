// Command menubot-augment enriches a menu CSV with Wikipedia summaries for
// selected columns before ingestion.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/menudata/menubot/config"
	"github.com/menudata/menubot/rag"
)

func main() {
	csvPath := flag.String("csv", "", "path to the menu CSV (required)")
	columns := flag.String("columns", "", "comma-separated columns to augment (default: standard menu columns)")
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

	var selected []string
	if *columns != "" {
		for _, col := range strings.Split(*columns, ",") {
			if col = strings.TrimSpace(col); col != "" {
				selected = append(selected, col)
			}
		}
	}

	augmenter := rag.NewWikipediaAugmenter()
	outPath, err := augmenter.AugmentCSV(context.Background(), *csvPath, selected)
	if err != nil {
		log.Fatalf("augmentation failed: %v", err)
	}

	rag.GlobalLogger.Info("augmentation complete", "output", outPath)
}
