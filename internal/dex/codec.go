package dex

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// WordHexLen is the hex length of one 32-byte ABI word.
const WordHexLen = 64

var (
	ErrPayloadTooShort = errors.New("payload too short")
	ErrInvalidWord     = errors.New("invalid payload word")
)

// AmountCodec decodes unsigned 32-byte words into token amounts.
type AmountCodec struct {
	Decimals int32
}

func NewAmountCodec(decimals int32) AmountCodec {
	return AmountCodec{Decimals: decimals}
}

// Decode extracts the word at field from payload (hex without 0x) and scales
// it by 10^-Decimals.
func (c AmountCodec) Decode(payload string, field int) (decimal.Decimal, error) {
	if field < 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: negative field %d", ErrInvalidWord, field)
	}
	end := (field + 1) * WordHexLen
	if len(payload) < end {
		return decimal.Decimal{}, fmt.Errorf("%w: field %d needs %d hex chars, got %d", ErrPayloadTooShort, field, end, len(payload))
	}

	raw, err := hexutil.Decode("0x" + payload[field*WordHexLen:end])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: field %d: %v", ErrInvalidWord, field, err)
	}
	value := new(big.Int).SetBytes(raw)
	return decimal.NewFromBigInt(value, -c.Decimals), nil
}

// DecodeWords decodes the first n words after checking the payload holds them.
func (c AmountCodec) DecodeWords(payload string, n int) ([]decimal.Decimal, error) {
	if len(payload) < n*WordHexLen {
		return nil, fmt.Errorf("%w: need %d words, got %d hex chars", ErrPayloadTooShort, n, len(payload))
	}
	out := make([]decimal.Decimal, 0, n)
	for i := 0; i < n; i++ {
		value, err := c.Decode(payload, i)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}
