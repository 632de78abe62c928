package packetswitch

import (
	"context"
	"log/slog"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// BalanceFilter 入站履约记账
//
// 只在返回路径上记账：Fulfill 扣减来源账户，Reject 不改余额。
// 与 ExpiryFilter 共享闸门，已超时放弃的请求不再记账。
// 记账失败只记日志，线上已经发生的履约不能撤回。
type BalanceFilter struct {
	tracker pkgif.BalanceTracker
}

// NewBalanceFilter 创建过滤器
func NewBalanceFilter(tracker pkgif.BalanceTracker) *BalanceFilter {
	return &BalanceFilter{tracker: tracker}
}

// DoFilter 实现 PacketSwitchFilter
func (f *BalanceFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	resp, err := chain.DoFilter(ctx, source, prepare)
	if err != nil {
		return nil, err
	}

	if _, ok := ilp.AsFulfill(resp); !ok {
		if logger.Enabled(slog.LevelDebug) {
			if bal, err := f.tracker.Balance(ctx, source.AccountID); err == nil {
				logger.Debug("Prepare 被拒绝，余额不变", "account", source.AccountID, "clearing", bal.ClearingBalance, "prepaid", bal.PrepaidAmount)
			}
		}
		return resp, nil
	}
	if prepare.Amount == 0 {
		return resp, nil
	}
	if !guardFrom(ctx).Commit() {
		logger.Warn("履约晚于超时到达，未记账", "account", source.AccountID, "amount", prepare.Amount)
		return resp, nil
	}

	if _, err := f.tracker.UpdateBalanceForIncomingFulfill(context.WithoutCancel(ctx), source, prepare.Amount); err != nil {
		logger.Error("入站履约记账失败", "account", source.AccountID, "amount", prepare.Amount, "error", err)
	}
	return resp, nil
}
