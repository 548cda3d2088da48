package storage

import (
	"fmt"

	"poolLedger/internal/model"
)

// CheckTransaction rejects transactions no store may persist.
func CheckTransaction(tx *model.Transaction) error {
	if tx == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidInput)
	}
	if !tx.Type.Valid() {
		return fmt.Errorf("%w: transaction type %q", ErrInvalidInput, tx.Type)
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidInput)
	}
	if tx.TxHash != nil && *tx.TxHash == "" {
		return fmt.Errorf("%w: empty transaction hash", ErrInvalidInput)
	}
	return nil
}
