package interfaces

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// SettlementService 结算服务
type SettlementService interface {
	// InitiateLocalSettlement 向对端发起结算，返回实际结算金额
	//
	// 相同 idempotencyKey 的重复调用只结算一次。
	InitiateLocalSettlement(ctx context.Context, idempotencyKey string, account *types.AccountSettings, amount uint64) (uint64, error)
}
