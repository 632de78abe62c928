package packetswitch

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// terminalFunc 过滤器之后的转发步骤
type terminalFunc func(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error)

// filterChain 单个请求的过滤链
type filterChain struct {
	filters  []pkgif.PacketSwitchFilter
	pos      int
	terminal terminalFunc
}

func newFilterChain(filters []pkgif.PacketSwitchFilter, terminal terminalFunc) *filterChain {
	return &filterChain{filters: filters, terminal: terminal}
}

// DoFilter 调用下一个过滤器，过滤器用尽后执行转发
func (c *filterChain) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error) {
	if c.pos < len(c.filters) {
		f := c.filters[c.pos]
		c.pos++
		return f.DoFilter(ctx, source, prepare, c)
	}
	resp, err := c.terminal(ctx, source, prepare)
	if rj, ok := ilp.AsReject(err); ok {
		return rj, nil
	}
	return resp, err
}
