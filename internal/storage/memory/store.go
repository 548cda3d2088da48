package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]model.Transaction
	hashes map[string]int64
}

func NewStore() *Store {
	return &Store{
		data:   make(map[int64]model.Transaction),
		hashes: make(map[string]int64),
	}
}

// Compile-time interface check.
var _ storage.Store = (*Store)(nil)

// Insert adds tx and assigns its ID. Returns ErrDuplicateKey if the hash exists.
func (s *Store) Insert(_ context.Context, tx *model.Transaction) error {
	if err := storage.CheckTransaction(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if hash := tx.Hash(); hash != "" {
		if _, exists := s.hashes[hash]; exists {
			return storage.ErrDuplicateKey
		}
	}
	s.put(tx)
	return nil
}

// BulkInsert adds every transaction or none.
func (s *Store) BulkInsert(_ context.Context, txs []model.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchHashes := make(map[string]struct{}, len(txs))
	for i := range txs {
		if err := storage.CheckTransaction(&txs[i]); err != nil {
			return 0, err
		}
		hash := txs[i].Hash()
		if hash == "" {
			continue
		}
		if _, exists := s.hashes[hash]; exists {
			return 0, storage.ErrDuplicateKey
		}
		if _, exists := batchHashes[hash]; exists {
			return 0, storage.ErrDuplicateKey
		}
		batchHashes[hash] = struct{}{}
	}

	for i := range txs {
		s.put(&txs[i])
	}
	return len(txs), nil
}

// FindAll returns every transaction ordered by date, then ID.
func (s *Store) FindAll(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Transaction, 0, len(s.data))
	for _, tx := range s.data {
		out = append(out, copyTransaction(tx))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindHashes returns the stored transaction hashes.
func (s *Store) FindHashes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.hashes))
	for hash := range s.hashes {
		out = append(out, hash)
	}
	sort.Strings(out)
	return out, nil
}

// DeleteByID removes a transaction. Returns ErrNotFound if absent.
func (s *Store) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.data[id]
	if !ok {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	if hash := tx.Hash(); hash != "" {
		delete(s.hashes, hash)
	}
	delete(s.data, id)
	return nil
}

func (s *Store) Close() error {
	return nil
}

// put stores tx under a fresh ID; callers hold the write lock.
func (s *Store) put(tx *model.Transaction) {
	s.nextID++
	tx.ID = s.nextID
	stored := copyTransaction(*tx)
	s.data[stored.ID] = stored
	if hash := stored.Hash(); hash != "" {
		s.hashes[hash] = stored.ID
	}
}

func copyTransaction(tx model.Transaction) model.Transaction {
	out := tx
	if tx.Notes != nil {
		notes := *tx.Notes
		out.Notes = &notes
	}
	if tx.TxHash != nil {
		hash := *tx.TxHash
		out.TxHash = &hash
	}
	return out
}
