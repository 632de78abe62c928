package ildcp

import "errors"

var (
	// ErrRejected 父节点拒绝了 IL-DCP 请求
	ErrRejected = errors.New("ildcp: request rejected")

	// ErrNoOperatorAddress 本节点地址未确定，无法分配子地址
	ErrNoOperatorAddress = errors.New("ildcp: operator address not set")

	// ErrNoParent 未配置父账户
	ErrNoParent = errors.New("ildcp: no parent account")
)
