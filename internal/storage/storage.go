package storage

import (
	"context"

	"poolLedger/internal/model"
)

// Store persists ledger transactions. Implementations enforce uniqueness of
// non-null transaction hashes and return ErrDuplicateKey on collision.
type Store interface {
	// Insert assigns tx.ID on success.
	Insert(ctx context.Context, tx *model.Transaction) error
	// BulkInsert writes every transaction or none.
	BulkInsert(ctx context.Context, txs []model.Transaction) (int, error)
	// FindAll returns every transaction ordered by date ascending.
	FindAll(ctx context.Context) ([]model.Transaction, error)
	// FindHashes returns the hashes of chain-derived transactions.
	FindHashes(ctx context.Context) ([]string, error)
	DeleteByID(ctx context.Context, id int64) error
	Close() error
}
