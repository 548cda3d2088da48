package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"poolLedger/internal/model"
)

var (
	ErrMissingField     = errors.New("missing required fields: date, type, tokens, usdt")
	ErrNothingToImport  = errors.New("no valid transactions to import")
	ErrEmptyImport      = errors.New("provide an array of transactions")
	errUnparseableDate  = errors.New("unparseable date")
	errUnsupportedValue = errors.New("unsupported value")
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Entry is a manually recorded transaction. All fields except Notes are required.
type Entry struct {
	Date   string `json:"date"`
	Type   string `json:"type"`
	Tokens string `json:"tokens"`
	USDT   string `json:"usdt"`
	Notes  string `json:"notes"`
}

// Transaction validates the entry. The type must match an enum value exactly.
func (e Entry) Transaction() (model.Transaction, error) {
	if strings.TrimSpace(e.Date) == "" || e.Type == "" || strings.TrimSpace(e.Tokens) == "" || strings.TrimSpace(e.USDT) == "" {
		return model.Transaction{}, ErrMissingField
	}
	txType, err := model.ParseTransactionType(e.Type)
	if err != nil {
		return model.Transaction{}, err
	}
	date, err := parseDate(e.Date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("date %q: %w", e.Date, err)
	}
	tokens, err := decimal.NewFromString(strings.TrimSpace(e.Tokens))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("tokens %q: %w", e.Tokens, err)
	}
	usdt, err := decimal.NewFromString(strings.TrimSpace(e.USDT))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("usdt %q: %w", e.USDT, err)
	}

	tx := model.Transaction{Date: date, Type: txType, Tokens: tokens, USDT: usdt}
	if notes := strings.TrimSpace(e.Notes); notes != "" {
		tx.Notes = &notes
	}
	return tx, nil
}

// ImportRow is one loosely typed record of a bulk import.
type ImportRow map[string]any

// DecodeImport reads either a JSON array of rows or an object holding one
// under "transactions".
func DecodeImport(r io.Reader) ([]ImportRow, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	raw = bytes.TrimSpace(raw)

	if len(raw) > 0 && raw[0] == '[' {
		var rows []ImportRow
		if err := decodeNumbers(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode import: %w", err)
		}
		return rows, nil
	}

	var wrapped struct {
		Transactions []ImportRow `json:"transactions"`
	}
	if err := decodeNumbers(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}
	if len(wrapped.Transactions) == 0 {
		return nil, ErrEmptyImport
	}
	return wrapped.Transactions, nil
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

var (
	typeKeys   = []string{"type", "Type"}
	tokensKeys = []string{"tokens", "Tokens", "lxv", "LXV"}
	usdtKeys   = []string{"usdt", "USDT", "usd", "USD"}
	dateKeys   = []string{"date", "Date", "timestamp"}
	notesKeys  = []string{"notes", "Notes", "txHash", "hash"}
)

// Normalize maps a row onto a transaction. It reports false for rows with an
// unknown type or a missing or unparseable date. Missing or unparseable
// amounts become zero. Imported rows never carry a transaction hash.
func (row ImportRow) Normalize() (model.Transaction, bool) {
	txType, ok := normalizeImportType(stringValue(row.first(typeKeys...)))
	if !ok {
		return model.Transaction{}, false
	}

	dateValue := row.first(dateKeys...)
	if dateValue == nil {
		return model.Transaction{}, false
	}
	date, err := dateFromValue(dateValue)
	if err != nil {
		return model.Transaction{}, false
	}

	tx := model.Transaction{
		Date:   date,
		Type:   txType,
		Tokens: amountOrZero(row.first(tokensKeys...)),
		USDT:   amountOrZero(row.first(usdtKeys...)),
	}
	if notes := row.first(notesKeys...); notes != nil {
		if text := stringValue(notes); text != "" {
			tx.Notes = &text
		}
	}
	return tx, true
}

// first returns the value of the first present, non-null key.
func (row ImportRow) first(keys ...string) any {
	for _, key := range keys {
		if value, ok := row[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func normalizeImportType(input string) (model.TransactionType, bool) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(input), "_"))
	switch normalized {
	case "LIQUIDITY_ADD", "ADD":
		return model.LiquidityAdd, true
	case "LIQUIDITY_REMOVE", "REMOVE":
		return model.LiquidityRemove, true
	case "BUY":
		return model.Buy, true
	case "SELL":
		return model.Sell, true
	default:
		return "", false
	}
}

// NormalizeImport keeps the valid rows in input order and reports how many
// were dropped.
func NormalizeImport(rows []ImportRow) ([]model.Transaction, int, error) {
	if len(rows) == 0 {
		return nil, 0, ErrEmptyImport
	}
	out := make([]model.Transaction, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		tx, ok := row.Normalize()
		if !ok {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	if len(out) == 0 {
		return nil, skipped, ErrNothingToImport
	}
	return out, skipped, nil
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func amountOrZero(value any) decimal.Decimal {
	switch v := value.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	}
	return decimal.Zero
}

// dateFromValue accepts date strings or unix milliseconds.
func dateFromValue(value any) (time.Time, error) {
	switch v := value.(type) {
	case string:
		return parseDate(v)
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %s", errUnparseableDate, v)
		}
		return time.UnixMilli(ms).UTC(), nil
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %T", errUnsupportedValue, value)
	}
}

func parseDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, errUnparseableDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", errUnparseableDate, input)
}
