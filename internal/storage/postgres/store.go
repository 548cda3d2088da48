package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const pgErrUniqueViolation = "23505"

const insertTransactionSQL = `
	INSERT INTO transactions (date, type, tokens, usdt, notes, tx_hash)
	VALUES ($1, $2, $3::numeric, $4::numeric, $5, $6)
	RETURNING id
`

// Store provides Postgres persistence for ledger transactions.
type Store struct {
	pool *pgxpool.Pool
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate applies the embedded schema files in lexical order. Every file is
// idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

// Insert adds tx and assigns its ID. Returns ErrDuplicateKey if the hash exists.
func (s *Store) Insert(ctx context.Context, tx *model.Transaction) error {
	if err := storage.CheckTransaction(tx); err != nil {
		return err
	}
	row := s.pool.QueryRow(ctx, insertTransactionSQL, insertArgs(tx)...)
	if err := row.Scan(&tx.ID); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// BulkInsert adds every transaction in one database transaction.
func (s *Store) BulkInsert(ctx context.Context, txs []model.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	for i := range txs {
		if err := storage.CheckTransaction(&txs[i]); err != nil {
			return 0, err
		}
	}

	dbTx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range txs {
		batch.Queue(insertTransactionSQL, insertArgs(&txs[i])...)
	}

	br := dbTx.SendBatch(ctx, batch)
	for i := range txs {
		if err := br.QueryRow().Scan(&txs[i].ID); err != nil {
			br.Close()
			if isDuplicateKeyError(err) {
				return 0, storage.ErrDuplicateKey
			}
			return 0, fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(txs), nil
}

// FindAll returns every transaction ordered by date ascending.
func (s *Store) FindAll(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, date, type, tokens::text, usdt::text, notes, tx_hash
		FROM transactions
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			tx     model.Transaction
			txType string
			tokens string
			usdt   string
			date   time.Time
		)
		if err := rows.Scan(&tx.ID, &date, &txType, &tokens, &usdt, &tx.Notes, &tx.TxHash); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date = date.UTC()
		tx.Type = model.TransactionType(txType)
		if tx.Tokens, err = decimal.NewFromString(tokens); err != nil {
			return nil, fmt.Errorf("parse tokens of %d: %w", tx.ID, err)
		}
		if tx.USDT, err = decimal.NewFromString(usdt); err != nil {
			return nil, fmt.Errorf("parse usdt of %d: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// FindHashes returns the hashes of chain-derived transactions.
func (s *Store) FindHashes(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT tx_hash FROM transactions WHERE tx_hash IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("find hashes: %w", err)
	}
	defer rows.Close()

	hashes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect hashes: %w", err)
	}
	return hashes, nil
}

// DeleteByID removes a transaction. Returns ErrNotFound if absent.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func insertArgs(tx *model.Transaction) []interface{} {
	return []interface{}{
		tx.Date.UTC(),
		string(tx.Type),
		tx.Tokens.String(),
		tx.USDT.String(),
		tx.Notes,
		tx.TxHash,
	}
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}
