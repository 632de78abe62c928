package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var logger = log.Logger("core/metrics")

// 结果标签
const (
	ResultPrepared  = "prepared"
	ResultFulfilled = "fulfilled"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

// direction 一个方向上的计数器组
type direction struct {
	packets *prometheus.CounterVec
	rejects *prometheus.CounterVec
	amount  *prometheus.CounterVec
}

func newDirection(namespace, name string) direction {
	return direction{
		packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name + "_packets_total",
			Help:      "ILP packets by account and result.",
		}, []string{"account", "result"}),
		rejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name + "_rejects_total",
			Help:      "ILP rejects by account and error code.",
		}, []string{"account", "code"}),
		amount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name + "_fulfilled_amount_total",
			Help:      "Fulfilled amount in the account's smallest unit.",
		}, []string{"account"}),
	}
}

func (d direction) collectors() []prometheus.Collector {
	return []prometheus.Collector{d.packets, d.rejects, d.amount}
}

// PacketMetrics 数据包计数器
type PacketMetrics struct {
	registry *prometheus.Registry
	incoming direction
	outgoing direction
}

// NewPacketMetrics 创建计数器并注册到独立 Registry
func NewPacketMetrics(namespace string) *PacketMetrics {
	m := &PacketMetrics{
		registry: prometheus.NewRegistry(),
		incoming: newDirection(namespace, "incoming"),
		outgoing: newDirection(namespace, "outgoing"),
	}
	m.registry.MustRegister(m.incoming.collectors()...)
	m.registry.MustRegister(m.outgoing.collectors()...)
	return m
}

// Registry 指标注册表
func (m *PacketMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 暴露指标的 HTTP handler
func (m *PacketMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncomingPrepare 入站 Prepare
func (m *PacketMetrics) IncomingPrepare(account types.AccountID) {
	if m == nil {
		return
	}
	m.incoming.packets.WithLabelValues(string(account), ResultPrepared).Inc()
}

// IncomingResponse 入站 Prepare 的应答
func (m *PacketMetrics) IncomingResponse(account types.AccountID, amount uint64, resp ilp.Response) {
	if m == nil {
		return
	}
	m.incoming.record(account, amount, resp)
}

// IncomingFailed 入站处理失败
func (m *PacketMetrics) IncomingFailed(account types.AccountID) {
	if m == nil {
		return
	}
	m.incoming.packets.WithLabelValues(string(account), ResultFailed).Inc()
}

// OutgoingPrepare 出站 Prepare
func (m *PacketMetrics) OutgoingPrepare(account types.AccountID) {
	if m == nil {
		return
	}
	m.outgoing.packets.WithLabelValues(string(account), ResultPrepared).Inc()
}

// OutgoingResponse 出站 Prepare 的应答
func (m *PacketMetrics) OutgoingResponse(account types.AccountID, amount uint64, resp ilp.Response) {
	if m == nil {
		return
	}
	m.outgoing.record(account, amount, resp)
}

// OutgoingFailed 出站发送失败
func (m *PacketMetrics) OutgoingFailed(account types.AccountID) {
	if m == nil {
		return
	}
	m.outgoing.packets.WithLabelValues(string(account), ResultFailed).Inc()
}

func (d direction) record(account types.AccountID, amount uint64, resp ilp.Response) {
	id := string(account)
	switch r := resp.(type) {
	case *ilp.Fulfill:
		d.packets.WithLabelValues(id, ResultFulfilled).Inc()
		d.amount.WithLabelValues(id).Add(float64(amount))
	case *ilp.Reject:
		d.packets.WithLabelValues(id, ResultRejected).Inc()
		d.rejects.WithLabelValues(id, string(r.Code)).Inc()
	default:
		d.packets.WithLabelValues(id, ResultFailed).Inc()
	}
}
