package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolLedger/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Token pool ledger with on-chain sync",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", config.StoreSQLite, "store backend (memory, sqlite, postgres)")
	flags.String("sqlite-path", "./data/ledger.db", "SQLite database file")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newSyncCmd(), newWatchCmd())
	root.AddCommand(newListCmd(), newAddCmd(), newImportCmd(), newDeleteCmd())
	return root
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
