package linkfilter

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Settler 异步结算
type Settler interface {
	Settle(account *types.AccountSettings, amount uint64) (string, error)
}

// OutgoingBalanceFilter 出站履约记账
//
// 只在应答为原像正确的 Fulfill 时增加目标账户的清算余额；
// 超过结算阈值移出的金额交给 Settler 异步结算，无法提交时退回。
// 记账与结算的错误只记录日志，不改变应答。
type OutgoingBalanceFilter struct {
	tracker pkgif.BalanceTracker
	settler Settler
}

// NewOutgoingBalanceFilter 创建过滤器，settler 可为 nil
func NewOutgoingBalanceFilter(tracker pkgif.BalanceTracker, settler Settler) *OutgoingBalanceFilter {
	return &OutgoingBalanceFilter{tracker: tracker, settler: settler}
}

// DoFilter 实现 LinkFilter
func (f *OutgoingBalanceFilter) DoFilter(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.LinkFilterChain) (ilp.Response, error) {
	resp, err := chain.DoFilter(ctx, destination, prepare)
	if err != nil {
		return nil, err
	}

	fulfill, ok := ilp.AsFulfill(resp)
	if !ok {
		return resp, nil
	}
	if !fulfill.Fulfillment.Validate(prepare.ExecutionCondition) {
		logger.Warn("出站履约原像不匹配，不记账", "account", destination.AccountID, "destination", prepare.Destination)
		return resp, nil
	}
	if prepare.Amount == 0 {
		return resp, nil
	}

	// 履约已经发生，请求被放弃也要记账
	ctx = context.WithoutCancel(ctx)
	result, err := f.tracker.UpdateBalanceForFulfill(ctx, destination, prepare.Amount)
	if err != nil {
		logger.Error("出站履约记账失败", "account", destination.AccountID, "amount", prepare.Amount, "error", err)
		return resp, nil
	}
	if result.ClearingAmountToSettle > 0 {
		f.settle(ctx, destination, result.ClearingAmountToSettle)
	}
	return resp, nil
}

func (f *OutgoingBalanceFilter) settle(ctx context.Context, destination *types.AccountSettings, amount uint64) {
	if f.settler != nil {
		_, err := f.settler.Settle(destination, amount)
		if err == nil {
			return
		}
		logger.Warn("无法提交结算", "account", destination.AccountID, "amount", amount, "error", err)
	}
	if _, err := f.tracker.UpdateBalanceForSettlementRefund(ctx, destination.AccountID, amount); err != nil {
		logger.Error("退回清算余额失败", "account", destination.AccountID, "amount", amount, "error", err)
	}
}
