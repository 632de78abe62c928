// Package routing 实现路由引擎
//
// 组成：
//   - Table：本地路由表，写时复制，数据包热路径上无锁最长前缀匹配
//   - ForwardingTable：对外通告的转发路由表，按纪元记录变更日志
//   - CcpSender / CcpReceiver：每个对端各一个，执行 CCP 增量同步
//   - Broadcaster：汇总静态路由、本地路由与对端路由，选出最优路由写入两张表
//
// 选路优先级：静态路由 > 本地路由（本节点地址、子账户） > 对端路由（路径最短，
// 同长时账户 ID 小者优先） > 指向父账户的默认路由。默认路由不对外通告。
package routing

import "github.com/dep2p/go-ilp-connector/pkg/lib/log"

var logger = log.Logger("core/routing")
