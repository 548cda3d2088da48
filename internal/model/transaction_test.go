package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	for _, want := range TransactionTypes {
		got, err := ParseTransactionType(string(want))
		if err != nil {
			t.Fatalf("parse %s: %v", want, err)
		}
		if got != want {
			t.Fatalf("type mismatch: %s != %s", got, want)
		}
	}

	for _, input := range []string{"", "buy", "ADD", "TRANSFER"} {
		if _, err := ParseTransactionType(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestTransactionJSONAmountsAreStrings(t *testing.T) {
	hash := "0xabc"
	tx := Transaction{
		ID:     1,
		Date:   time.Unix(1700000000, 0).UTC(),
		Type:   Buy,
		Tokens: decimal.RequireFromString("5.000000000000000001"),
		USDT:   decimal.NewFromInt(10),
		Notes:  &hash,
		TxHash: &hash,
	}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded["tokens"] != "5.000000000000000001" {
		t.Fatalf("tokens should keep full precision: %v", decoded["tokens"])
	}
	if decoded["type"] != "BUY" {
		t.Fatalf("type mismatch: %v", decoded["type"])
	}
	if decoded["tx_hash"] != hash {
		t.Fatalf("tx_hash mismatch: %v", decoded["tx_hash"])
	}
}

func TestRawLogPayload(t *testing.T) {
	log := RawLog{Data: "0xdeadbeef", Topics: []string{"0xaaa", "0xbbb"}}
	if log.Payload() != "deadbeef" {
		t.Fatalf("payload mismatch: %s", log.Payload())
	}
	if log.Topic0() != "0xaaa" {
		t.Fatalf("topic0 mismatch: %s", log.Topic0())
	}
	if (RawLog{}).Topic0() != "" {
		t.Fatalf("empty topics should yield empty topic0")
	}
}
