// Command menubot runs the restaurant chatbot HTTP service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/menudata/menubot/config"
	"github.com/menudata/menubot/rag"
	"github.com/menudata/menubot/server"
)

func main() {
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

	if cfg.APIKey == "" {
		log.Fatal("MENUBOT_API_KEY is required")
	}

	ctx := context.Background()

	if err := rag.EnsureStore(ctx, cfg.StorePath, cfg.StoreURL); err != nil {
		log.Fatalf("failed to prepare vector store: %v", err)
	}

	embed, err := rag.NewEmbeddingFunc(cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.EmbeddingAPIKey)
	if err != nil {
		log.Fatalf("failed to create embedding function: %v", err)
	}

	store, err := rag.OpenStore(cfg.StorePath, embed)
	if err != nil {
		log.Fatalf("failed to open vector store: %v", err)
	}
	rag.GlobalLogger.Info("vector store opened", "path", cfg.StorePath, "documents", store.Count())

	completer, err := rag.NewLLMCompleter(cfg.Provider, cfg.Model, cfg.APIKey)
	if err != nil {
		log.Fatalf("failed to create completer: %v", err)
	}

	engine := rag.NewEngine(store, rag.NewDuckDuckGo(), completer)
	feedback := rag.NewFeedbackStore(cfg.FeedbackFile)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.New(engine, feedback, cfg.FrontendDir).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	rag.GlobalLogger.Info("starting server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
