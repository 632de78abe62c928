package metrics

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-ilp-connector/config"
)

// Module 是 metrics 的 Fx 模块
var Module = fx.Module("metrics",
	fx.Provide(ProvidePacketMetrics),
)

// ProvidePacketMetrics 按配置创建计数器，未启用时返回 nil
func ProvidePacketMetrics(cfg *config.Config) *PacketMetrics {
	if !cfg.Metrics.Enabled {
		logger.Debug("指标未启用")
		return nil
	}
	return NewPacketMetrics(cfg.Metrics.Namespace)
}
