package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

// Snapshot is the full ledger with its derived totals.
type Snapshot struct {
	Transactions []model.Transaction `json:"transactions"`
	Totals       model.PoolTotals    `json:"totals"`
}

// ImportResult reports a bulk import and the ledger it produced.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Snapshot
}

// Service exposes the ledger read and write operations. Every write returns a
// freshly recomputed snapshot.
type Service struct {
	store  storage.Store
	logger *zap.Logger
}

func NewService(store storage.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// List returns every transaction in date order with its totals.
func (s *Service) List(ctx context.Context) (Snapshot, error) {
	txs, err := s.store.FindAll(ctx)
	if err != nil {
		return Snapshot{Totals: Aggregate(nil)}, fmt.Errorf("load transactions: %w", err)
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	return Snapshot{Transactions: txs, Totals: Aggregate(txs)}, nil
}

// KnownHashes loads the hashes of every chain-derived transaction.
func (s *Service) KnownHashes(ctx context.Context) (*KnownHashes, error) {
	hashes, err := s.store.FindHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load hashes: %w", err)
	}
	return NewKnownHashes(hashes...), nil
}

// Add records a manual entry.
func (s *Service) Add(ctx context.Context, entry Entry) (Snapshot, error) {
	tx, err := entry.Transaction()
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.store.Insert(ctx, &tx); err != nil {
		return Snapshot{}, fmt.Errorf("insert transaction: %w", err)
	}
	s.logger.Info("transaction added", zap.Int64("id", tx.ID), zap.String("type", string(tx.Type)))
	return s.List(ctx)
}

// Import normalizes rows and writes the valid ones in a single batch.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	txs, skipped, err := NormalizeImport(rows)
	if err != nil {
		return ImportResult{Skipped: skipped}, err
	}
	inserted, err := s.store.BulkInsert(ctx, txs)
	if err != nil {
		return ImportResult{Skipped: skipped}, fmt.Errorf("import transactions: %w", err)
	}
	s.logger.Info("transactions imported", zap.Int("imported", inserted), zap.Int("skipped", skipped))

	snapshot, err := s.List(ctx)
	return ImportResult{Imported: inserted, Skipped: skipped, Snapshot: snapshot}, err
}

// Delete removes a transaction by ID.
func (s *Service) Delete(ctx context.Context, id int64) (Snapshot, error) {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return Snapshot{}, err
	}
	s.logger.Info("transaction deleted", zap.Int64("id", id))
	return s.List(ctx)
}
