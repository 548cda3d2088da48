package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of a ledger entry.
type TransactionType string

const (
	LiquidityAdd    TransactionType = "LIQUIDITY_ADD"
	LiquidityRemove TransactionType = "LIQUIDITY_REMOVE"
	Buy             TransactionType = "BUY"
	Sell            TransactionType = "SELL"
)

// TransactionTypes lists every accepted type.
var TransactionTypes = []TransactionType{LiquidityAdd, LiquidityRemove, Buy, Sell}

// Valid reports whether t is one of the four ledger types.
func (t TransactionType) Valid() bool {
	switch t {
	case LiquidityAdd, LiquidityRemove, Buy, Sell:
		return true
	default:
		return false
	}
}

// ParseTransactionType accepts only the exact enum values.
func ParseTransactionType(input string) (TransactionType, error) {
	t := TransactionType(input)
	if !t.Valid() {
		return "", fmt.Errorf("invalid transaction type: %q", input)
	}
	return t, nil
}

// Transaction is a single ledger entry. Tokens and USDT are magnitudes; Type
// carries the direction.
type Transaction struct {
	ID     int64           `json:"id"`
	Date   time.Time       `json:"date"`
	Type   TransactionType `json:"type"`
	Tokens decimal.Decimal `json:"tokens"`
	USDT   decimal.Decimal `json:"usdt"`
	Notes  *string         `json:"notes"`
	TxHash *string         `json:"tx_hash,omitempty"`
}

// Hash returns the transaction hash or an empty string for manual entries.
func (t Transaction) Hash() string {
	if t.TxHash == nil {
		return ""
	}
	return *t.TxHash
}
