package nexthop

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/rates"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
)

// Params 模块依赖
type Params struct {
	fx.In

	Config    *config.Config
	Operator  pkgif.OperatorAddressSupplier
	Table     pkgif.RoutingTable
	Accounts  pkgif.AccountSettingsCache
	Converter *rates.Converter
	Clock     clock.Clock `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("nexthop",
		fx.Provide(ProvideMapper),
	)
}

// ProvideMapper 提供下一跳解析器
func ProvideMapper(p Params) pkgif.NextHopPacketMapper {
	return NewMapper(p.Operator, p.Table, p.Accounts, p.Converter, p.Clock, Config{
		MinMessageWindow: p.Config.Connector.MinMessageWindow.Duration(),
		MaxHoldTime:      p.Config.Connector.MaxHoldTime.Duration(),
	})
}
