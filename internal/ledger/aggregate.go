package ledger

import (
	"github.com/shopspring/decimal"

	"poolLedger/internal/model"
)

// TotalSupply is the fixed supply of the tracked token.
var TotalSupply = decimal.NewFromInt(1_000_000_000)

// Aggregate folds a ledger into pool totals. Input order does not matter and
// negative results are reported as-is.
func Aggregate(txs []model.Transaction) model.PoolTotals {
	liquidity := decimal.Zero
	tokens := decimal.Zero
	usdt := decimal.Zero

	for _, tx := range txs {
		switch tx.Type {
		case model.LiquidityAdd:
			liquidity = liquidity.Add(tx.USDT)
			tokens = tokens.Add(tx.Tokens)
			usdt = usdt.Add(tx.USDT)
		case model.LiquidityRemove:
			liquidity = liquidity.Sub(tx.USDT)
			tokens = tokens.Sub(tx.Tokens)
			usdt = usdt.Sub(tx.USDT)
		case model.Buy:
			tokens = tokens.Sub(tx.Tokens)
			usdt = usdt.Add(tx.USDT)
		case model.Sell:
			tokens = tokens.Add(tx.Tokens)
			usdt = usdt.Sub(tx.USDT)
		}
	}

	return model.PoolTotals{
		TotalSupply:         TotalSupply,
		TotalLiquidityAdded: liquidity,
		TokensInPool:        tokens,
		USDTInPool:          usdt,
	}
}
