// Package rates 提供汇率与金额换算
//
// 换算使用 shopspring/decimal，结果向零截断：转发的价值永远不超过收到的价值。
package rates

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var (
	// ErrRateNotFound 没有该资产对的汇率
	ErrRateNotFound = errors.New("rates: rate not found")

	// ErrAmountOverflow 换算结果超出 uint64
	ErrAmountOverflow = errors.New("rates: converted amount overflows uint64")
)

var maxUint64 = decimal.NewFromUint64(math.MaxUint64)

// StaticProvider 静态汇率表
type StaticProvider struct {
	mu    sync.RWMutex
	rates map[[2]string]decimal.Decimal
}

// NewStaticProvider 创建静态汇率表
func NewStaticProvider(rates map[[2]string]decimal.Decimal) *StaticProvider {
	p := &StaticProvider{rates: make(map[[2]string]decimal.Decimal, len(rates))}
	for k, v := range rates {
		p.rates[k] = v
	}
	return p
}

// Rate 查询汇率，同种资产恒为 1
func (p *StaticProvider) Rate(_ context.Context, src, dst string) (decimal.Decimal, error) {
	if src == dst {
		return decimal.NewFromInt(1), nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.rates[[2]string{src, dst}]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s/%s", ErrRateNotFound, src, dst)
	}
	return r, nil
}

// SetRate 设置汇率
func (p *StaticProvider) SetRate(src, dst string, rate decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[[2]string{src, dst}] = rate
}

// Converter 按账户资产换算金额
type Converter struct {
	provider pkgif.ExchangeRateProvider
}

// NewConverter 创建换算器
func NewConverter(provider pkgif.ExchangeRateProvider) *Converter {
	return &Converter{provider: provider}
}

// Convert 把来源账户最小单位的金额换算为目标账户最小单位
//
//	dst = src × rate × 10^(dstScale − srcScale)，向零截断
func (c *Converter) Convert(ctx context.Context, amount uint64, src, dst *types.AccountSettings) (uint64, error) {
	if src.AssetCode == dst.AssetCode && src.AssetScale == dst.AssetScale {
		return amount, nil
	}
	rate, err := c.provider.Rate(ctx, src.AssetCode, dst.AssetCode)
	if err != nil {
		return 0, err
	}
	shift := int32(dst.AssetScale) - int32(src.AssetScale)
	out := decimal.NewFromUint64(amount).Mul(rate).Shift(shift).Truncate(0)
	if out.IsNegative() {
		return 0, fmt.Errorf("rates: negative rate %s", rate)
	}
	if out.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, out)
	}
	return out.BigInt().Uint64(), nil
}

var _ pkgif.ExchangeRateProvider = (*StaticProvider)(nil)
