package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolLedger/internal/config"
	"poolLedger/internal/ingest"
	"poolLedger/internal/source"
)

func addSyncFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("source", config.SourceNode, "log source (node, explorer)")
	flags.String("rpc", config.DefaultRPCURL, "EVM JSON-RPC URL")
	flags.String("explorer-url", config.DefaultExplorerURL, "block explorer API URL")
	flags.String("explorer-api-key", "", "block explorer API key")
	flags.String("pair", config.DefaultPair, "pair contract address")
	flags.String("topic-swap", config.DefaultSwapTopic, "Swap event topic0")
	flags.String("topic-mint", config.DefaultMintTopic, "Mint event topic0")
	flags.String("topic-burn", config.DefaultBurnTopic, "Burn event topic0")
	flags.Int32("decimals", 18, "token decimals")
	flags.Duration("block-time", 3*time.Second, "average block time used to estimate timestamps")
	flags.Duration("pacing-delay", 4*time.Second, "minimum delay between provider calls")
	flags.Uint64("block-range", 2000, "blocks per node window")
	flags.Int("max-pages", 1, "pages fetched per event kind")
	flags.Int("page-size", 1000, "explorer page size")
	flags.Int("max-retries", 3, "maximum retry attempts for node calls")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("archive-dir", "", "directory for raw log and decode error JSONL archives")
}

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull the latest pair events into the ledger",
		RunE:  runSync,
	}
	addSyncFlags(cmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync on an interval and export metrics",
		RunE:  runWatch,
	}
	addSyncFlags(cmd)
	cmd.Flags().Duration("interval", 5*time.Minute, "time between syncs")
	cmd.Flags().String("metrics-addr", "", "address for the /metrics endpoint (empty disables it)")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	src, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	orch, err := newOrchestrator(cfg, src, store, nil, logger)
	if err != nil {
		return err
	}

	logger.Info("sync start",
		zap.String("source", cfg.Source),
		zap.String("store", cfg.Store),
		zap.String("pair", cfg.Chain.Pair.Hex()),
		zap.Uint64("block_range", cfg.Chain.BlockRange),
		zap.Int("max_pages", cfg.MaxPages),
	)

	summary, syncErr := orch.Sync(ctx)
	if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if source.IsConfigError(syncErr) {
		return syncErr
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	src, closeSource, err := newSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := ingest.NewMetrics(reg)

	orch, err := newOrchestrator(cfg, src, store, metrics, logger)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("watch start",
		zap.String("source", cfg.Source),
		zap.String("store", cfg.Store),
		zap.Duration("interval", cfg.Interval),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		summary, err := orch.Sync(ctx)
		if source.IsConfigError(err) {
			return err
		}
		if err == nil {
			logger.Info("pool totals",
				zap.Int("synced", summary.Synced),
				zap.String("tokens_in_pool", summary.Totals.TokensInPool.String()),
				zap.String("usdt_in_pool", summary.Totals.USDTInPool.String()),
				zap.String("total_liquidity_added", summary.Totals.TotalLiquidityAdded.String()),
			)
		}

		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func startMetricsServer(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return srv
}
