package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

// transactionRow is the table layout. Amounts are stored as decimal text so
// 18-decimal values survive without float rounding.
type transactionRow struct {
	ID     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Date   time.Time `gorm:"column:date;not null;index"`
	Type   string    `gorm:"column:type;not null;check:type IN ('LIQUIDITY_ADD','LIQUIDITY_REMOVE','BUY','SELL')"`
	Tokens string    `gorm:"column:tokens;not null"`
	USDT   string    `gorm:"column:usdt;not null"`
	Notes  *string   `gorm:"column:notes"`
	TxHash *string   `gorm:"column:tx_hash;uniqueIndex"`
}

func (transactionRow) TableName() string {
	return "transactions"
}

func toRow(tx *model.Transaction) transactionRow {
	return transactionRow{
		ID:     tx.ID,
		Date:   tx.Date.UTC(),
		Type:   string(tx.Type),
		Tokens: tx.Tokens.String(),
		USDT:   tx.USDT.String(),
		Notes:  tx.Notes,
		TxHash: tx.TxHash,
	}
}

func (r transactionRow) toDomain() (model.Transaction, error) {
	tokens, err := decimal.NewFromString(r.Tokens)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse tokens of %d: %w", r.ID, err)
	}
	usdt, err := decimal.NewFromString(r.USDT)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse usdt of %d: %w", r.ID, err)
	}
	return model.Transaction{
		ID:     r.ID,
		Date:   r.Date.UTC(),
		Type:   model.TransactionType(r.Type),
		Tokens: tokens,
		USDT:   usdt,
		Notes:  r.Notes,
		TxHash: r.TxHash,
	}, nil
}

// Store persists transactions in a local SQLite file through gorm.
type Store struct {
	db *gorm.DB
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// NewStore opens (and creates if needed) the database at path. Use ":memory:"
// for a throwaway database.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := gorm.Open(gormsqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&transactionRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert adds tx and assigns its ID. Returns ErrDuplicateKey if the hash exists.
func (s *Store) Insert(ctx context.Context, tx *model.Transaction) error {
	if err := storage.CheckTransaction(tx); err != nil {
		return err
	}
	row := toRow(tx)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID = row.ID
	return nil
}

// BulkInsert adds every transaction in one database transaction.
func (s *Store) BulkInsert(ctx context.Context, txs []model.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}
	rows := make([]transactionRow, 0, len(txs))
	for i := range txs {
		if err := storage.CheckTransaction(&txs[i]); err != nil {
			return 0, err
		}
		row := toRow(&txs[i])
		row.ID = 0
		rows = append(rows, row)
	}

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return db.Create(&rows).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, storage.ErrDuplicateKey
		}
		return 0, fmt.Errorf("insert transactions in bulk: %w", err)
	}
	for i := range rows {
		txs[i].ID = rows[i].ID
	}
	return len(rows), nil
}

// FindAll returns every transaction ordered by date ascending.
func (s *Store) FindAll(ctx context.Context) ([]model.Transaction, error) {
	var rows []transactionRow
	if err := s.db.WithContext(ctx).Order("date ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	out := make([]model.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// FindHashes returns the hashes of chain-derived transactions.
func (s *Store) FindHashes(ctx context.Context) ([]string, error) {
	var hashes []string
	err := s.db.WithContext(ctx).
		Model(&transactionRow{}).
		Where("tx_hash IS NOT NULL").
		Pluck("tx_hash", &hashes).Error
	if err != nil {
		return nil, fmt.Errorf("find hashes: %w", err)
	}
	return hashes, nil
}

// DeleteByID removes a transaction. Returns ErrNotFound if absent.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&transactionRow{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete transaction %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
