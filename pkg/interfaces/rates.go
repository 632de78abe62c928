package interfaces

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangeRateProvider 汇率报价
type ExchangeRateProvider interface {
	// Rate 返回 1 单位 source 资产可兑换的 destination 资产数量（均为主单位）
	Rate(ctx context.Context, sourceAsset, destinationAsset string) (decimal.Decimal, error)
}
