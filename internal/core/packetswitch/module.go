package packetswitch

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/ildcp"
	"github.com/dep2p/go-ilp-connector/internal/core/linkfilter"
	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// Params 模块依赖
type Params struct {
	fx.In

	Config      *config.Config
	Operator    pkgif.OperatorAddressSupplier
	Accounts    pkgif.AccountSettingsCache
	Table       pkgif.RoutingTable
	Mapper      pkgif.NextHopPacketMapper
	Links       pkgif.LinkManager
	Sender      *linkfilter.Sender
	Tracker     pkgif.BalanceTracker
	Ildcp       *ildcp.Responder       `optional:"true"`
	Broadcaster *routing.Broadcaster   `optional:"true"`
	Metrics     *metrics.PacketMetrics `optional:"true"`
	Clock       clock.Clock            `optional:"true"`

	// Extra 追加在内置过滤器之后
	Extra []pkgif.PacketSwitchFilter `group:"packet_filters"`
}

// Result 模块输出
type Result struct {
	fx.Out

	PacketSwitch pkgif.PacketSwitch
	Switch       *PacketSwitch
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("packetswitch",
		fx.Provide(ProvideSwitch),
		fx.Invoke(registerInbound),
	)
}

// ProvideSwitch 按固定顺序组装过滤器
func ProvideSwitch(p Params) Result {
	filters := []pkgif.PacketSwitchFilter{
		NewExpiryFilter(p.Operator, p.Clock),
		NewAllowedDestinationFilter(p.Operator, p.Table, p.Config.Connector.DisallowedDestinationSchemes),
		NewRateLimitFilter(p.Operator, p.Config.Cache.RateLimiterSize, p.Config.Cache.RateLimiterIdle.Duration()),
		NewMaxPacketAmountFilter(p.Operator),
		NewPeerProtocolFilter(p.Operator, ildcpHandler(p.Ildcp), routeHandler(p.Broadcaster)),
		NewPingProtocolFilter(p.Operator),
		NewBalanceFilter(p.Tracker),
		NewValidateFulfillmentFilter(p.Operator),
		NewPacketMetricsFilter(p.Metrics),
	}
	filters = append(filters, p.Extra...)

	ps := New(Deps{
		Operator: p.Operator,
		Accounts: p.Accounts,
		Mapper:   p.Mapper,
		Links:    p.Links,
		Sender:   p.Sender,
	}, filters...)
	return Result{PacketSwitch: ps, Switch: ps}
}

func ildcpHandler(r *ildcp.Responder) IldcpHandler {
	if r == nil {
		return nil
	}
	return r
}

func routeHandler(b *routing.Broadcaster) RouteHandler {
	if b == nil {
		return nil
	}
	return b
}

func registerInbound(links pkgif.LinkManager, ps *PacketSwitch) {
	links.SetInboundHandler(ps.HandleInbound)
}
