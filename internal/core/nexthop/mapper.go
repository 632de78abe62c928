// Package nexthop 实现下一跳解析
//
// 根据路由表最长前缀匹配选出目标账户，把金额换算为目标账户资产，
// 并缩短过期时间为上游保留应答窗口。
package nexthop

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-ilp-connector/internal/core/rates"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var logger = log.Logger("core/nexthop")

// ErrNoOperatorAddress 节点地址尚未确定
var ErrNoOperatorAddress = errors.New("nexthop: operator address not set")

// AmountConverter 金额换算
type AmountConverter interface {
	Convert(ctx context.Context, amount uint64, src, dst *types.AccountSettings) (uint64, error)
}

// Config 过期时间参数
type Config struct {
	// MinMessageWindow 每一跳扣除的应答窗口
	MinMessageWindow time.Duration

	// MaxHoldTime 出站 Prepare 的最长持有时间
	MaxHoldTime time.Duration
}

// Mapper 下一跳解析器
type Mapper struct {
	operator  pkgif.OperatorAddressSupplier
	table     pkgif.RoutingTable
	accounts  pkgif.AccountSettingsCache
	converter AmountConverter
	clock     clock.Clock
	cfg       Config
}

// NewMapper 创建解析器
func NewMapper(operator pkgif.OperatorAddressSupplier, table pkgif.RoutingTable, accounts pkgif.AccountSettingsCache,
	converter AmountConverter, clk clock.Clock, cfg Config) *Mapper {
	if clk == nil {
		clk = clock.New()
	}
	return &Mapper{
		operator:  operator,
		table:     table,
		accounts:  accounts,
		converter: converter,
		clock:     clk,
		cfg:       cfg,
	}
}

// GetNextHopPacket 实现 NextHopPacketMapper
func (m *Mapper) GetNextHopPacket(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (*types.NextHopInfo, error) {
	self := m.operator.Address()
	if self.IsZero() {
		return nil, ErrNoOperatorAddress
	}
	now := m.clock.Now()

	nextHop, err := m.resolve(self, prepare.Destination, now)
	if err != nil {
		return nil, err
	}

	dest, err := m.accounts.Get(ctx, nextHop)
	if err != nil {
		if errors.Is(err, types.ErrAccountNotFound) {
			logger.Warn("路由指向不存在的账户", "destination", prepare.Destination, "nextHop", nextHop)
			return nil, ilp.NewRejectError(ilp.F02Unreachable, self, "Destination address is unreachable")
		}
		return nil, err
	}

	amount := prepare.Amount
	if nextHop != types.PingAccountID {
		amount, err = m.convert(ctx, self, prepare.Amount, source, dest)
		if err != nil {
			return nil, err
		}
	}
	if maxAmount, ok := dest.MaxPacketAmount(); ok && amount > maxAmount {
		return nil, &ilp.RejectError{Reject: ilp.NewAmountTooLargeReject(self, amount, maxAmount)}
	}

	expiresAt := prepare.ExpiresAt.Add(-m.cfg.MinMessageWindow)
	if limit := now.Add(m.cfg.MaxHoldTime); expiresAt.After(limit) {
		expiresAt = limit
	}
	if !expiresAt.After(now) {
		return nil, ilp.NewRejectError(ilp.R02InsufficientTimeout, self,
			"Insufficient timeout: source packet expires too soon to forward")
	}

	next := prepare.WithAmount(amount).WithExpiresAt(expiresAt)
	return &types.NextHopInfo{NextHopAccountID: nextHop, NextHopPacket: next}, nil
}

func (m *Mapper) resolve(self, dest ilp.Address, now time.Time) (types.AccountID, error) {
	if dest == self {
		return types.PingAccountID, nil
	}
	route, ok := m.table.Lookup(dest)
	if !ok || route.Expired(now) {
		logger.Debug("没有可用路由", "destination", dest)
		return "", ilp.NewRejectError(ilp.F02Unreachable, self, "Destination address is unreachable")
	}
	return route.NextHopAccountID, nil
}

func (m *Mapper) convert(ctx context.Context, self ilp.Address, amount uint64, src, dst *types.AccountSettings) (uint64, error) {
	out, err := m.converter.Convert(ctx, amount, src, dst)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, rates.ErrAmountOverflow):
		return 0, ilp.NewRejectError(ilp.F08AmountTooLarge, self, "Converted amount exceeds the maximum packet amount")
	case errors.Is(err, rates.ErrRateNotFound):
		return 0, ilp.NewRejectError(ilp.F02Unreachable, self, "No exchange rate from %s to %s", src.AssetCode, dst.AssetCode)
	default:
		return 0, err
	}
}

var _ pkgif.NextHopPacketMapper = (*Mapper)(nil)
