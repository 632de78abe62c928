package settlement

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// Params 模块依赖
type Params struct {
	fx.In

	Engine   engine.Engine
	EventBus pkgif.EventBus
	Tracker  pkgif.BalanceTracker
	Driver   Driver `optional:"true"`
}

// Result 模块输出
type Result struct {
	fx.Out

	Service pkgif.SettlementService
	Trigger *Trigger
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("settlement",
		fx.Provide(ProvideSettlement),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideSettlement 提供结算服务与触发器
func ProvideSettlement(p Params) (Result, error) {
	driver := p.Driver
	if driver == nil {
		driver = LoggingDriver{}
	}
	svc, err := NewService(driver, p.Engine, p.EventBus)
	if err != nil {
		return Result{}, err
	}
	return Result{Service: svc, Trigger: NewTrigger(svc, p.Tracker)}, nil
}

func registerLifecycle(lc fx.Lifecycle, trigger *Trigger) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return trigger.Close()
		},
	})
}
