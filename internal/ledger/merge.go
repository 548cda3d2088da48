package ledger

import (
	"context"
	"errors"
	"fmt"

	"poolLedger/internal/model"
	"poolLedger/internal/storage"
)

// Inserter is the slice of storage.Store that Merge needs.
type Inserter interface {
	Insert(ctx context.Context, tx *model.Transaction) error
}

// MergeResult counts the outcome of a merge.
type MergeResult struct {
	// Inserted is the number of rows actually written.
	Inserted int
	// Skipped counts candidates already in the known set.
	Skipped int
	// Collisions counts inserts rejected by the store's uniqueness constraint.
	Collisions int
}

// Merge inserts candidates in arrival order. Candidates whose hash is in known
// are skipped without touching the store; known is updated as each candidate
// is accepted, so a second candidate with the same hash never reaches Insert.
// Duplicate-key rejections are counted and swallowed. Any other store error
// stops the merge and is returned with the counts reached so far.
func Merge(ctx context.Context, candidates []model.Transaction, known *KnownHashes, store Inserter) (MergeResult, error) {
	var result MergeResult
	if known == nil {
		known = NewKnownHashes()
	}

	for i := range candidates {
		candidate := candidates[i]
		hash := candidate.Hash()
		if hash != "" && known.Has(hash) {
			result.Skipped++
			continue
		}
		if hash != "" {
			known.Add(hash)
		}

		if err := store.Insert(ctx, &candidate); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				result.Collisions++
				continue
			}
			return result, fmt.Errorf("insert %s: %w", hash, err)
		}
		result.Inserted++
	}
	return result, nil
}
