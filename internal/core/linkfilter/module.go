package linkfilter

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/internal/core/settlement"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// Params 模块依赖
type Params struct {
	fx.In

	Tracker pkgif.BalanceTracker
	Trigger *settlement.Trigger    `optional:"true"`
	Metrics *metrics.PacketMetrics `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("linkfilter",
		fx.Provide(ProvideSender),
	)
}

// ProvideSender 组装出站过滤链：指标在外层，记账在内层
func ProvideSender(p Params) *Sender {
	var settler Settler
	if p.Trigger != nil {
		settler = p.Trigger
	}
	return NewSender(
		NewOutgoingMetricsFilter(p.Metrics),
		NewOutgoingBalanceFilter(p.Tracker, settler),
	)
}
