package types

import (
	"time"
)

// ============================================================================
//                              链路事件
// ============================================================================

// EvtLinkConnected 链路已连接
type EvtLinkConnected struct {
	AccountID AccountID
	Time      time.Time
}

// EvtLinkDisconnected 链路已断开
//
// CCP 发送端据此切回 IDLE，接收端丢弃该对端的路由。
type EvtLinkDisconnected struct {
	AccountID AccountID
	Time      time.Time
}

// ============================================================================
//                              结算事件
// ============================================================================

// EvtSettlementInitiated 已发起本地结算
type EvtSettlementInitiated struct {
	AccountID      AccountID
	IdempotencyKey string
	Amount         uint64
	Time           time.Time
}

// EvtSettlementFailed 结算失败，清算余额已回滚
type EvtSettlementFailed struct {
	AccountID      AccountID
	IdempotencyKey string
	Amount         uint64
	Err            error
	Time           time.Time
}
