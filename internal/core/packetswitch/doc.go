// Package packetswitch 实现数据包交换
//
// 入站 Prepare 依次经过固定顺序的过滤器：
//
//	Expiry → AllowedDestination → RateLimit → MaxPacketAmount →
//	PeerProtocol → Ping → Balance → ValidateFulfillment → PacketMetrics
//
// 最后一个过滤器之后解析下一跳，经链路过滤链发往出站链路。
// 应答沿相反顺序返回，每个过滤器都可以在返回路径上检查或替换应答。
//
// 过滤器实例被所有请求共享；每个请求新建一条带游标的过滤链。
// 协作者以 *ilp.RejectError 返回的业务失败转换为 Reject，
// 其余错误与 panic 在 PacketSwitch 边界转换为 T00。
package packetswitch

import "github.com/dep2p/go-ilp-connector/pkg/lib/log"

var logger = log.Logger("core/packetswitch")
