package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolLedger/internal/ledger"
	"poolLedger/internal/model"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every transaction with the pool totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) (interface{}, error) {
				return svc.List(ctx)
			})
		},
	}
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a manual transaction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry := ledger.Entry{}
			entry.Date, _ = cmd.Flags().GetString("date")
			entry.Type, _ = cmd.Flags().GetString("type")
			entry.Tokens, _ = cmd.Flags().GetString("tokens")
			entry.USDT, _ = cmd.Flags().GetString("usdt")
			entry.Notes, _ = cmd.Flags().GetString("notes")

			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) (interface{}, error) {
				return svc.Add(ctx, entry)
			})
		},
	}
	cmd.Flags().String("date", "", "transaction date (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().String("type", "", "LIQUIDITY_ADD, LIQUIDITY_REMOVE, BUY or SELL")
	cmd.Flags().String("tokens", "", "token amount")
	cmd.Flags().String("usdt", "", "USDT amount")
	cmd.Flags().String("notes", "", "optional notes")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Bulk import transactions from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer file.Close()
				input = file
			}
			rows, err := ledger.DecodeImport(input)
			if err != nil {
				return err
			}

			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) (interface{}, error) {
				return svc.Import(ctx, rows)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			return withLedger(cmd, func(ctx context.Context, svc *ledger.Service) (interface{}, error) {
				snapshot, err := svc.Delete(ctx, id)
				if err != nil {
					return nil, err
				}
				// Deletion reports totals only.
				return struct {
					Totals model.PoolTotals `json:"totals"`
				}{snapshot.Totals}, nil
			})
		},
	}
}

// withLedger opens the configured store, runs fn and prints its result.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, svc *ledger.Service) (interface{}, error)) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := fn(ctx, ledger.NewService(store, logger))
	if err != nil {
		logger.Debug("ledger command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
