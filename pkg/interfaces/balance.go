package interfaces

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// BalanceTracker 账户余额账本
//
// 同一账户上的所有变更必须线性一致。
type BalanceTracker interface {
	// Balance 查询余额，未记账的账户返回零余额
	Balance(ctx context.Context, id types.AccountID) (types.AccountBalance, error)

	// UpdateBalanceForIncomingFulfill 来源账户的 Prepare 被履约：先扣预付，再扣清算余额
	UpdateBalanceForIncomingFulfill(ctx context.Context, source *types.AccountSettings, amount uint64) (types.AccountBalance, error)

	// UpdateBalanceForFulfill 出站 Prepare 被履约：增加目标账户清算余额，
	// 超过结算阈值时把 clearing - settleTo 移出清算余额并返回待结算金额
	UpdateBalanceForFulfill(ctx context.Context, destination *types.AccountSettings, amount uint64) (types.BalanceUpdateResult, error)

	// UpdateBalanceForSettlementRefund 结算失败，把金额加回清算余额
	UpdateBalanceForSettlementRefund(ctx context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error)

	// UpdateBalanceForIncomingSettlement 收到对端结算：增加清算余额，超出欠款的部分转为预付
	UpdateBalanceForIncomingSettlement(ctx context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error)
}
