package packetswitch

import (
	"context"

	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// PacketMetricsFilter 入站数据包计数，错误原样向上返回
type PacketMetricsFilter struct {
	metrics *metrics.PacketMetrics
}

// NewPacketMetricsFilter 创建过滤器，m 为 nil 时只透传
func NewPacketMetricsFilter(m *metrics.PacketMetrics) *PacketMetricsFilter {
	return &PacketMetricsFilter{metrics: m}
}

// DoFilter 实现 PacketSwitchFilter
func (f *PacketMetricsFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	f.metrics.IncomingPrepare(source.AccountID)
	resp, err := chain.DoFilter(ctx, source, prepare)
	if err != nil {
		f.metrics.IncomingFailed(source.AccountID)
		return nil, err
	}
	f.metrics.IncomingResponse(source.AccountID, prepare.Amount, resp)
	return resp, nil
}
