package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"codelore/internal/chatclient"
	"codelore/internal/chunker"
	"codelore/internal/chunker/languages"
	"codelore/internal/config"
	"codelore/internal/embedclient"
	"codelore/internal/indexer"
	"codelore/internal/jobregistry"
	"codelore/internal/queryengine"
	"codelore/internal/repofetcher"
	"codelore/internal/textprep"
	"codelore/internal/vectorstore"
)

// app bundles every wired component a command needs. Built once per
// invocation from the resolved config.
type app struct {
	cfg      config.Config
	fetcher  *repofetcher.Fetcher
	registry *jobregistry.Registry
	query    *queryengine.QueryEngine
	store    *vectorstore.Store
}

// searchAdapter adapts *vectorstore.Store's Hit shape to the narrower one
// package queryengine depends on, so queryengine never imports vectorstore.
type searchAdapter struct{ store *vectorstore.Store }

func (a searchAdapter) Search(ctx context.Context, vector []float32, limit int, filter map[string]string) ([]queryengine.Hit, error) {
	hits, err := a.store.Search(ctx, vector, limit, vectorstore.Filter(filter))
	if err != nil {
		return nil, err
	}
	out := make([]queryengine.Hit, len(hits))
	for i, h := range hits {
		out[i] = queryengine.Hit{ID: h.ID, Score: h.Score, Payload: h.Payload}
	}
	return out, nil
}

// deleteAdapter adapts *vectorstore.Store's Filter type to the narrower
// map[string]string signature package jobregistry depends on, so
// jobregistry never imports vectorstore.
type deleteAdapter struct{ store *vectorstore.Store }

func (a deleteAdapter) DeleteByFilter(ctx context.Context, filter map[string]string) error {
	return a.store.DeleteByFilter(ctx, vectorstore.Filter(filter))
}

func newApp(ctx context.Context) (*app, error) {
	cfgPath := flagConfig
	if cfgPath == "" {
		home, _ := os.UserHomeDir()
		cfgPath = home + "/.codelore/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	fetcher := repofetcher.New(cfg.StoragePath, "")

	registry := chunker.NewRegistry()
	languages.RegisterGo(registry)
	languages.RegisterPython(registry)
	languages.RegisterJavaScript(registry)
	languages.RegisterTypeScript(registry)
	ck := chunker.New(registry, slog.Default())

	embedder, err := embedclient.New(cfg.APIKey, cfg.Endpoint, cfg.EmbedModel, cfg.MaxRetries, time.Duration(cfg.BaseDelayMS)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("build embedding client: %w", err)
	}

	chat, err := chatclient.New(cfg.APIKey, cfg.Endpoint, cfg.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("build chat client: %w", err)
	}

	store, err := vectorstore.New(vectorstore.Config{
		Host:           cfg.VectorBackendHost,
		Port:           cfg.VectorBackendPort,
		CollectionName: "chunks",
		Dimension:      cfg.VectorDim,
	})
	if err != nil {
		return nil, fmt.Errorf("connect vector store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("init vector store collection: %w", err)
	}

	idx := &indexer.Indexer{
		Fetcher:          fetcher,
		Chunker:          ck,
		Embedder:         embedder,
		Store:            store,
		Logger:           slog.Default(),
		Chat:             chat,
		GenerateOverview: cfg.GenerateOverview,
		TextPrep:         textprep.Config{MaxTokens: cfg.MaxTokens, CharsPerToken: cfg.CharsPerToken},
		ProgressInterval: cfg.ProgressInterval,
		EmbedBatch:       cfg.EmbedBatch,
	}
	jobs := jobregistry.New(idx, deleteAdapter{store: store}, slog.Default())

	qe := &queryengine.QueryEngine{
		Embedder: embedder,
		Store:    searchAdapter{store: store},
		Chat:     chat,
	}

	return &app{cfg: cfg, fetcher: fetcher, registry: jobs, query: qe, store: store}, nil
}
