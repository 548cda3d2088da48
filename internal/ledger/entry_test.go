package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolLedger/internal/model"
)

func TestEntryTransaction(t *testing.T) {
	tx, err := Entry{Date: "2024-03-01", Type: "BUY", Tokens: "12.5", USDT: "3", Notes: " first "}.Transaction()
	require.NoError(t, err)
	assert.Equal(t, model.Buy, tx.Type)
	assert.True(t, tx.Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, tx.Tokens.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, tx.Notes)
	assert.Equal(t, "first", *tx.Notes)
	assert.Nil(t, tx.TxHash)
}

func TestEntryTransactionRejects(t *testing.T) {
	_, err := Entry{Date: "2024-03-01", Type: "BUY", Tokens: "1"}.Transaction()
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = Entry{Date: "2024-03-01", Type: "buy", Tokens: "1", USDT: "1"}.Transaction()
	assert.Error(t, err, "manual entries require the exact enum")

	_, err = Entry{Date: "yesterday", Type: "BUY", Tokens: "1", USDT: "1"}.Transaction()
	assert.Error(t, err)

	_, err = Entry{Date: "2024-03-01", Type: "BUY", Tokens: "abc", USDT: "1"}.Transaction()
	assert.Error(t, err)
}

func TestNormalizeImport(t *testing.T) {
	rows, err := DecodeImport(strings.NewReader(`{"transactions": [
		{"Type": "add", "LXV": "1000", "usd": 50, "Date": "2024-01-01T00:00:00Z", "hash": "0xabc"},
		{"type": "liquidity remove", "tokens": 200, "usdt": "20", "timestamp": 1704153600000},
		{"type": "buy", "date": "2024-01-03"},
		{"type": "swap", "date": "2024-01-04"},
		{"type": "SELL"},
		{"type": "SELL", "date": "not a date"}
	]}`))
	require.NoError(t, err)

	txs, skipped, err := NormalizeImport(rows)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, 3, skipped)

	assert.Equal(t, model.LiquidityAdd, txs[0].Type)
	assert.True(t, txs[0].Tokens.Equal(decimal.NewFromInt(1000)))
	assert.True(t, txs[0].USDT.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, txs[0].Notes)
	assert.Equal(t, "0xabc", *txs[0].Notes)
	assert.Nil(t, txs[0].TxHash)

	assert.Equal(t, model.LiquidityRemove, txs[1].Type)
	assert.True(t, txs[1].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, model.Buy, txs[2].Type)
	assert.True(t, txs[2].Tokens.IsZero())
	assert.True(t, txs[2].USDT.IsZero())
}

func TestNormalizeImportNothingValid(t *testing.T) {
	rows, err := DecodeImport(strings.NewReader(`[{"type": "swap", "date": "2024-01-01"}]`))
	require.NoError(t, err)

	_, skipped, err := NormalizeImport(rows)
	assert.ErrorIs(t, err, ErrNothingToImport)
	assert.Equal(t, 1, skipped)

	_, _, err = NormalizeImport(nil)
	assert.ErrorIs(t, err, ErrEmptyImport)
}

func TestDecodeImportRejectsMissingArray(t *testing.T) {
	_, err := DecodeImport(strings.NewReader(`{"rows": []}`))
	assert.ErrorIs(t, err, ErrEmptyImport)

	_, err = DecodeImport(strings.NewReader(`not json`))
	assert.Error(t, err)
}
