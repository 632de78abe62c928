package packetswitch

import "errors"

var (
	// ErrNoOperatorAddress 节点地址尚未确定
	ErrNoOperatorAddress = errors.New("packetswitch: operator address not set")

	// ErrPanic 过滤链中发生 panic
	ErrPanic = errors.New("packetswitch: panic in filter chain")
)
