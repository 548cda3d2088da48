package model

import "github.com/shopspring/decimal"

// PoolTotals is derived from the full ledger on every read and never stored.
type PoolTotals struct {
	TotalSupply         decimal.Decimal `json:"total_supply"`
	TotalLiquidityAdded decimal.Decimal `json:"total_liquidity_added"`
	TokensInPool        decimal.Decimal `json:"tokens_in_pool"`
	USDTInPool          decimal.Decimal `json:"usdt_in_pool"`
}
