package interfaces

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// ============================================================================
//                              数据包交换过滤器
// ============================================================================

// PacketSwitchFilter 数据包交换过滤器
//
// 过滤器可以直接返回 Reject 短路，也可以调用 chain.DoFilter 继续并在返回路径上检查应答。
// 过滤器实例被所有请求共享，必须是无状态或并发安全的。
type PacketSwitchFilter interface {
	DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain PacketSwitchFilterChain) (ilp.Response, error)
}

// PacketSwitchFilterChain 单次请求的过滤链
type PacketSwitchFilterChain interface {
	DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error)
}

// PacketSwitchFilterFunc 函数适配器
type PacketSwitchFilterFunc func(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain PacketSwitchFilterChain) (ilp.Response, error)

// DoFilter 实现 PacketSwitchFilter
func (f PacketSwitchFilterFunc) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain PacketSwitchFilterChain) (ilp.Response, error) {
	return f(ctx, source, prepare, chain)
}

// PacketSwitch 数据包交换入口
type PacketSwitch interface {
	// SwitchPacket 处理来源账户上的 Prepare，总是返回 Fulfill 或 Reject
	SwitchPacket(ctx context.Context, source types.AccountID, prepare *ilp.Prepare) ilp.Response
}

// ============================================================================
//                              链路过滤器
// ============================================================================

// LinkFilter 出站链路过滤器，包裹 link.SendPacket
type LinkFilter interface {
	DoFilter(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare, chain LinkFilterChain) (ilp.Response, error)
}

// LinkFilterChain 单次出站发送的链路过滤链
type LinkFilterChain interface {
	DoFilter(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error)
}

// LinkFilterFunc 函数适配器
type LinkFilterFunc func(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare, chain LinkFilterChain) (ilp.Response, error)

// DoFilter 实现 LinkFilter
func (f LinkFilterFunc) DoFilter(ctx context.Context, destination *types.AccountSettings, prepare *ilp.Prepare, chain LinkFilterChain) (ilp.Response, error) {
	return f(ctx, destination, prepare, chain)
}
