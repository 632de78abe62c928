// Package linkfilter 实现出站链路过滤链
//
// 过滤链包裹 link.SendPacket：下一跳确定后，数据包依次经过各过滤器，
// 最后一个过滤器之后调用链路发送，应答沿相反顺序返回。
package linkfilter

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var logger = log.Logger("core/linkfilter")

// chain 单次发送的过滤链，带位置游标，每次发送新建
type chain struct {
	filters []pkgif.LinkFilter
	pos     int
	link    pkgif.Link
}

func (c *chain) DoFilter(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error) {
	if c.pos < len(c.filters) {
		f := c.filters[c.pos]
		c.pos++
		return f.DoFilter(ctx, destination, prepare, c)
	}
	return c.link.SendPacket(ctx, prepare)
}

// Sender 经过滤链向链路发送
type Sender struct {
	filters []pkgif.LinkFilter
}

// NewSender 按给定顺序组装过滤器
func NewSender(filters ...pkgif.LinkFilter) *Sender {
	return &Sender{filters: filters}
}

// Send 发送 Prepare
func (s *Sender) Send(ctx context.Context, link pkgif.Link, destination *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error) {
	c := &chain{filters: s.filters, link: link}
	return c.DoFilter(ctx, destination, prepare)
}
