package routing

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Params 模块依赖
type Params struct {
	fx.In

	Config   *config.Config
	Operator pkgif.OperatorAddressSupplier
	Accounts pkgif.AccountSettingsRepository
	Links    pkgif.LinkManager
	EventBus pkgif.EventBus
	Clock    clock.Clock `optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	RoutingTable pkgif.RoutingTable
	Table        *Table
	Forwarding   *ForwardingTable
	Broadcaster  *Broadcaster
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("routing",
		fx.Provide(ProvideRouting),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRouting 提供路由表与广播器
func ProvideRouting(p Params) (Result, error) {
	auth, err := routeAuthFromConfig(p.Config.Routing)
	if err != nil {
		return Result{}, err
	}
	table := NewTable()
	forwarding := NewForwardingTable()

	b, err := NewBroadcaster(p.Config.Routing, types.AccountID(p.Config.Connector.ParentAccountID), BroadcasterDeps{
		Operator:   p.Operator,
		Table:      table,
		Forwarding: forwarding,
		Auth:       auth,
		Accounts:   p.Accounts,
		Links:      p.Links,
		EventBus:   p.EventBus,
		Clock:      p.Clock,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{RoutingTable: table, Table: table, Forwarding: forwarding, Broadcaster: b}, nil
}

// routeAuthFromConfig 未配置路由密钥时随机生成，重启后 auth 随之变化
func routeAuthFromConfig(cfg config.RoutingConfig) (*RouteAuth, error) {
	secret := []byte(cfg.RoutingSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate routing secret: %w", err)
		}
		logger.Debug("未配置 routing_secret，已随机生成")
	}
	return NewRouteAuth(secret), nil
}

func registerLifecycle(lc fx.Lifecycle, b *Broadcaster) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return b.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return b.Stop()
		},
	})
}
