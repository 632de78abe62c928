package ildcp

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/operator"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Params 模块依赖
type Params struct {
	fx.In

	LC       fx.Lifecycle
	Config   *config.Config
	Holder   *operator.Holder
	Supplier pkgif.OperatorAddressSupplier
	Accounts pkgif.AccountSettingsCache
	Links    pkgif.LinkManager
	Clock    clock.Clock `optional:"true"`
}

// Module 返回 Fx 模块
//
// 必须排在 routing 之前：OnStart 中获取的地址是路由广播的前提。
func Module() fx.Option {
	return fx.Module("ildcp",
		fx.Provide(ProvideResponder),
		fx.Invoke(registerBootstrap),
	)
}

// ProvideResponder 提供应答端
func ProvideResponder(p Params) *Responder {
	return NewResponder(p.Config.Connector.EnableIldcp, p.Supplier, p.Accounts)
}

// registerBootstrap 地址未配置时在启动阶段向父节点获取
func registerBootstrap(p Params) {
	if p.Holder.IsSet() {
		return
	}
	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return bootstrap(ctx, p)
		},
	})
}

func bootstrap(ctx context.Context, p Params) error {
	parentID := types.AccountID(p.Config.Connector.ParentAccountID)
	if parentID == "" {
		return ErrNoParent
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}

	parent, err := p.Accounts.Get(ctx, parentID)
	if err != nil {
		return fmt.Errorf("ildcp: load parent %s: %w", parentID, err)
	}
	link, err := p.Links.GetOrCreateLink(ctx, parent)
	if err != nil {
		return fmt.Errorf("ildcp: link to parent %s: %w", parentID, err)
	}
	resp, err := Fetch(ctx, link, clk.Now())
	if err != nil {
		logger.Error("IL-DCP 获取地址失败", "parent", parentID, "error", err)
		return err
	}
	if err := p.Holder.Set(resp.ClientAddress); err != nil {
		return err
	}
	logger.Info("已通过 IL-DCP 获取地址", "address", resp.ClientAddress, "assetCode", resp.AssetCode, "assetScale", resp.AssetScale)
	return nil
}
