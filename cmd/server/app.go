package main

import (
	"context"
	"fmt"
	"log"

	"gwi.com/research-assistant/internal/config"
	"gwi.com/research-assistant/internal/core"
	"gwi.com/research-assistant/internal/loader"
	"gwi.com/research-assistant/internal/store"
)

type model interface {
	core.Embedder
	core.Answerer
	Close()
}

// app holds the process-wide services shared by every command.
type app struct {
	cfg    *config.Config
	db     *store.SQLiteStore
	model  model
	loader loader.Loader
	rag    *core.RAGService
	chats  *core.ChatService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	a.db, err = store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	indexes, err := store.NewIndexStore(cfg.IndexDir)
	if err != nil {
		a.Close()
		return nil, err
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		a.model = core.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel, cfg.Temperature)
	default:
		gemini, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.ChatModel, cfg.EmbeddingModel, cfg.Temperature)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
		}
		a.model = gemini
	}

	switch cfg.Loader {
	case config.LoaderHTTP:
		a.loader = loader.NewHTTP(cfg.LoaderTimeout, cfg.LoaderMaxChars)
	default:
		browser, err := loader.NewBrowser(cfg.LoaderTimeout, cfg.LoaderMaxChars)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize page loader: %w", err)
		}
		a.loader = browser
	}
	log.Printf("Using %s provider with %s loader", cfg.LLMProvider, cfg.Loader)

	a.rag = core.NewRAGService(a.loader, a.model, a.model, indexes)
	if err := a.rag.SetChunking(cfg.ChunkSize, cfg.ChunkOverlap); err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid chunking settings: %w", err)
	}
	a.rag.SetDebug(cfg.Debug())
	a.chats = core.NewChatService(a.db, a.rag)
	return a, nil
}

func (a *app) Close() {
	if a.loader != nil {
		a.loader.Close()
	}
	if a.model != nil {
		a.model.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}
