package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"poolLedger/internal/model"
)

func tx(txType model.TransactionType, tokens, usdt int64) model.Transaction {
	return model.Transaction{
		Date:   time.Unix(1700000000, 0).UTC(),
		Type:   txType,
		Tokens: decimal.NewFromInt(tokens),
		USDT:   decimal.NewFromInt(usdt),
	}
}

func TestAggregateExample(t *testing.T) {
	totals := Aggregate([]model.Transaction{
		tx(model.LiquidityAdd, 1000, 50),
		tx(model.Buy, 100, 10),
		tx(model.LiquidityRemove, 200, 20),
	})

	if !totals.TokensInPool.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("tokens in pool = %s", totals.TokensInPool)
	}
	if !totals.USDTInPool.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("usdt in pool = %s", totals.USDTInPool)
	}
	if !totals.TotalLiquidityAdded.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("total liquidity added = %s", totals.TotalLiquidityAdded)
	}
	if !totals.TotalSupply.Equal(decimal.NewFromInt(1_000_000_000)) {
		t.Fatalf("total supply = %s", totals.TotalSupply)
	}
}

func TestAggregateEmpty(t *testing.T) {
	totals := Aggregate(nil)
	if !totals.TokensInPool.IsZero() || !totals.USDTInPool.IsZero() || !totals.TotalLiquidityAdded.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
	if !totals.TotalSupply.Equal(TotalSupply) {
		t.Fatalf("total supply = %s", totals.TotalSupply)
	}
}

func TestAggregateSellAndNegative(t *testing.T) {
	totals := Aggregate([]model.Transaction{
		tx(model.Sell, 30, 3),
		tx(model.LiquidityRemove, 100, 10),
	})
	if !totals.TokensInPool.Equal(decimal.NewFromInt(-70)) {
		t.Fatalf("tokens in pool = %s", totals.TokensInPool)
	}
	if !totals.USDTInPool.Equal(decimal.NewFromInt(-13)) {
		t.Fatalf("usdt in pool = %s", totals.USDTInPool)
	}
	if !totals.TotalLiquidityAdded.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("total liquidity added = %s", totals.TotalLiquidityAdded)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	base := []model.Transaction{
		tx(model.LiquidityAdd, 1000, 50),
		tx(model.Buy, 100, 10),
		tx(model.Sell, 40, 5),
		tx(model.LiquidityRemove, 200, 20),
	}
	want := Aggregate(base)

	for _, perm := range permutations(len(base)) {
		ordered := make([]model.Transaction, len(base))
		for i, idx := range perm {
			ordered[i] = base[idx]
		}
		got := Aggregate(ordered)
		if !got.TokensInPool.Equal(want.TokensInPool) ||
			!got.USDTInPool.Equal(want.USDTInPool) ||
			!got.TotalLiquidityAdded.Equal(want.TotalLiquidityAdded) {
			t.Fatalf("permutation %v: got %+v want %+v", perm, got, want)
		}
	}
}

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			next := make([]int, 0, n)
			next = append(next, p[:i]...)
			next = append(next, n-1)
			next = append(next, p[i:]...)
			out = append(out, next)
		}
	}
	return out
}
