package settlement

import "errors"

var (
	// ErrNoSettlementEngine 账户未配置结算引擎
	ErrNoSettlementEngine = errors.New("settlement: account has no settlement engine")

	// ErrZeroAmount 结算金额为零
	ErrZeroAmount = errors.New("settlement: zero amount")

	// ErrClosed 结算触发器已关闭
	ErrClosed = errors.New("settlement: closed")
)
