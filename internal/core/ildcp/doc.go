// Package ildcp 实现 IL-DCP 两端
//
// Responder 为直连账户分配子地址 operator.accountId；
// Fetcher 在本节点未配置地址时，于启动阶段向父账户请求地址。
package ildcp

import "github.com/dep2p/go-ilp-connector/pkg/lib/log"

var logger = log.Logger("core/ildcp")
