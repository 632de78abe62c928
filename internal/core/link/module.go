package link

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// Params 模块依赖
type Params struct {
	fx.In

	Operator  pkgif.OperatorAddressSupplier
	EventBus  pkgif.EventBus
	Factories []pkgif.LinkFactory `group:"link_factories"`
}

// Result 模块输出
type Result struct {
	fx.Out

	LinkManager pkgif.LinkManager
	Manager     *Manager
}

// Module 返回 Fx 模块
//
// 额外的链路工厂通过 `group:"link_factories"` 注入。
func Module() fx.Option {
	return fx.Module("link",
		fx.Provide(ProvideManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideManager 提供链路管理器
func ProvideManager(p Params) (Result, error) {
	m, err := NewManager(p.Operator, p.EventBus)
	if err != nil {
		return Result{}, err
	}
	for _, f := range p.Factories {
		m.RegisterFactory(f)
	}
	return Result{LinkManager: m, Manager: m}, nil
}

func registerLifecycle(lc fx.Lifecycle, m *Manager) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return m.Close()
		},
	})
}
