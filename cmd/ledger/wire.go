package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolLedger/internal/chain"
	"poolLedger/internal/config"
	"poolLedger/internal/dex"
	"poolLedger/internal/ingest"
	"poolLedger/internal/source"
	"poolLedger/internal/storage"
	"poolLedger/internal/storage/memory"
	"poolLedger/internal/storage/postgres"
	"poolLedger/internal/storage/sqlite"
)

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), nil
	case config.StoreSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// newSource builds the configured log source. The returned close func is
// never nil.
func newSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (source.LogSource, func(), error) {
	pacer := source.NewPacer(cfg.Chain.PacingDelay)
	logger = logger.With(zap.String("source", cfg.Source))

	switch cfg.Source {
	case config.SourceNode:
		client, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect rpc: %w", err)
		}
		src := source.NewNodeSource(source.NodeConfig{
			Pair:         cfg.Chain.Pair,
			BlockRange:   cfg.Chain.BlockRange,
			BlockTime:    cfg.Chain.BlockTime,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		}, client, pacer, logger)
		return src, client.Close, nil
	case config.SourceExplorer:
		src := source.NewExplorerSource(source.ExplorerConfig{
			BaseURL:  cfg.ExplorerURL,
			APIKey:   cfg.ExplorerAPIKey,
			Pair:     cfg.Chain.Pair,
			PageSize: cfg.PageSize,
		}, nil, pacer, logger)
		return src, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func newOrchestrator(cfg config.Config, src source.LogSource, store storage.Store, metrics *ingest.Metrics, logger *zap.Logger) (*ingest.Orchestrator, error) {
	deps := ingest.Deps{
		Source:     src,
		Classifier: dex.NewClassifier(cfg.Chain.Topics, dex.NewAmountCodec(cfg.Chain.Decimals)),
		Store:      store,
		Metrics:    metrics,
		Logger:     logger,
	}
	if cfg.ArchiveDir != "" {
		deps.Archive = storage.NewJsonlArchive(cfg.ArchiveDir)
	}
	return ingest.NewOrchestrator(ingest.Config{MaxPages: cfg.MaxPages}, deps)
}
