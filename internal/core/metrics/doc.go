// Package metrics 提供数据包指标
//
// 基于 prometheus/client_golang，使用独立的 Registry：
//
//	m := metrics.NewPacketMetrics("ilp_connector")
//	m.IncomingPrepare("bob")
//	m.IncomingFulfill("bob", 10)
//	http.Handle("/metrics", m.Handler())
//
// 计数器按账户分维度：
//   - incoming_packets_total{account, result}：入站数据包（prepared / fulfilled / rejected / failed）
//   - outgoing_packets_total{account, result}：出站链路数据包
//   - incoming_rejects_total{account, code} / outgoing_rejects_total{account, code}
//   - incoming_fulfilled_amount_total{account} / outgoing_fulfilled_amount_total{account}
//
// 未启用指标时 Fx 模块提供 nil，nil 接收者上的所有方法都是空操作。
//
// # 并发安全
//
// prometheus 计数器内置原子操作，无需额外同步。
package metrics
