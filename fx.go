package connector

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"

	"github.com/dep2p/go-ilp-connector/internal/core/accounts"
	"github.com/dep2p/go-ilp-connector/internal/core/balance"
	"github.com/dep2p/go-ilp-connector/internal/core/eventbus"
	"github.com/dep2p/go-ilp-connector/internal/core/ildcp"
	"github.com/dep2p/go-ilp-connector/internal/core/link"
	"github.com/dep2p/go-ilp-connector/internal/core/linkfilter"
	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/internal/core/nexthop"
	"github.com/dep2p/go-ilp-connector/internal/core/operator"
	"github.com/dep2p/go-ilp-connector/internal/core/packetswitch"
	"github.com/dep2p/go-ilp-connector/internal/core/rates"
	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	"github.com/dep2p/go-ilp-connector/internal/core/settlement"
	"github.com/dep2p/go-ilp-connector/internal/core/storage"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

var fxLogger = log.Logger("connector/fx")

// buildFxApp 构建 Fx 应用
//
// 模块顺序即 OnStart 顺序：账户先写入仓库，IL-DCP 随后获取地址，
// 路由广播最后启动。
func buildFxApp(cfg *config.Config, o *options, c *Connector) *fx.App {
	modules := []fx.Option{
		fx.Supply(cfg),
	}

	// ════════════════════════════════════════════════════════════════════════
	// 1. 注入的协作者
	// ════════════════════════════════════════════════════════════════════════
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	for _, f := range o.linkFactories {
		modules = append(modules, fx.Provide(fx.Annotated{
			Group:  "link_factories",
			Target: func() pkgif.LinkFactory { return f },
		}))
	}
	for _, f := range o.packetFilters {
		modules = append(modules, fx.Provide(fx.Annotated{
			Group:  "packet_filters",
			Target: func() pkgif.PacketSwitchFilter { return f },
		}))
	}
	if o.settleDriver != nil {
		d := o.settleDriver
		modules = append(modules, fx.Provide(func() settlement.Driver { return d }))
	}
	if o.rateProvider != nil {
		p := o.rateProvider
		modules = append(modules, fx.Provide(fx.Annotated{
			Name:   "external",
			Target: func() pkgif.ExchangeRateProvider { return p },
		}))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 基础设施
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		storage.Module(),
		eventbus.Module(),
		operator.Module(),
		accounts.Module(),
		balance.Module(),
		settlement.Module(),
		rates.Module(),
		metrics.Module,
	)

	// ════════════════════════════════════════════════════════════════════════
	// 3. 链路与对等协议
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		link.Module(),
		linkfilter.Module(),
		ildcp.Module(),
		routing.Module(),
	)

	// ════════════════════════════════════════════════════════════════════════
	// 4. 数据包交换
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		nexthop.Module(),
		packetswitch.Module(),
	)

	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	// ════════════════════════════════════════════════════════════════════════
	// 5. Connector 组件注入
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		fx.Populate(
			&c.engine,
			&c.holder,
			&c.switcher,
			&c.links,
			&c.repo,
			&c.cache,
			&c.tracker,
			&c.table,
			&c.broadcaster,
			&c.settlement,
			&c.metrics,
		),
		// 禁用 Fx 日志输出（避免干扰连接器日志）
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	fxLogger.Debug("Fx 应用已装配",
		"operator", cfg.Connector.OperatorAddress,
		"accounts", len(cfg.Accounts),
		"linkFactories", len(o.linkFactories),
		"packetFilters", len(o.packetFilters))
	return fx.New(modules...)
}
