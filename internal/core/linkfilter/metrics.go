package linkfilter

import (
	"context"

	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// OutgoingMetricsFilter 出站数据包计数，不吞掉错误
type OutgoingMetricsFilter struct {
	metrics *metrics.PacketMetrics
}

// NewOutgoingMetricsFilter 创建过滤器，m 为 nil 时只透传
func NewOutgoingMetricsFilter(m *metrics.PacketMetrics) *OutgoingMetricsFilter {
	return &OutgoingMetricsFilter{metrics: m}
}

// DoFilter 实现 LinkFilter
func (f *OutgoingMetricsFilter) DoFilter(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.LinkFilterChain) (ilp.Response, error) {
	f.metrics.OutgoingPrepare(destination.AccountID)
	resp, err := chain.DoFilter(ctx, destination, prepare)
	if err != nil {
		f.metrics.OutgoingFailed(destination.AccountID)
		return nil, err
	}
	f.metrics.OutgoingResponse(destination.AccountID, prepare.Amount, resp)
	return resp, nil
}
