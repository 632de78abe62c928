package routing

import "errors"

var (
	// ErrCcpSendingDisabled 账户未开启路由发送
	ErrCcpSendingDisabled = errors.New("routing: ccp sending is not enabled for this account")

	// ErrCcpReceivingDisabled 账户未开启路由接收
	ErrCcpReceivingDisabled = errors.New("routing: ccp receiving is not enabled for this account")

	// ErrNoOperatorAddress 节点地址尚未设置
	ErrNoOperatorAddress = errors.New("routing: operator address not set")
)
