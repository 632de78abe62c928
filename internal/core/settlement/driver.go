package settlement

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Request 一次本地结算请求
type Request struct {
	IdempotencyKey  string
	AccountID       types.AccountID
	EngineAccountID string
	BaseURL         string
	Amount          uint64
}

// Driver 结算引擎端口
//
// 连接器只通过 Driver 与具体的结算引擎交互，返回实际结算金额。
type Driver interface {
	SendSettlement(ctx context.Context, req Request) (uint64, error)
}

// DriverFunc 函数适配器
type DriverFunc func(ctx context.Context, req Request) (uint64, error)

// SendSettlement 实现 Driver
func (f DriverFunc) SendSettlement(ctx context.Context, req Request) (uint64, error) {
	return f(ctx, req)
}

// LoggingDriver 只记录日志并确认全额的驱动，未接入结算引擎时使用
type LoggingDriver struct{}

// SendSettlement 实现 Driver
func (LoggingDriver) SendSettlement(_ context.Context, req Request) (uint64, error) {
	logger.Info("结算请求（未接入结算引擎）",
		"account", req.AccountID,
		"engineAccount", req.EngineAccountID,
		"amount", req.Amount,
		"idempotencyKey", req.IdempotencyKey)
	return req.Amount, nil
}
