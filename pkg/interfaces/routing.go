package interfaces

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// RoutingTable 本地路由表
//
// Lookup 位于每个数据包的热路径上，必须无锁读。
type RoutingTable interface {
	// Lookup 最长前缀匹配
	Lookup(dest ilp.Address) (*types.Route, bool)

	// AddRoute 新增或替换前缀的路由
	AddRoute(route *types.Route)

	// RemoveRoute 删除前缀的路由
	RemoveRoute(prefix ilp.AddressPrefix) (*types.Route, bool)

	// Route 精确查找前缀
	Route(prefix ilp.AddressPrefix) (*types.Route, bool)

	// Routes 全部路由快照
	Routes() []*types.Route

	// Reset 清空路由表
	Reset()
}

// NextHopPacketMapper 下一跳解析
type NextHopPacketMapper interface {
	// GetNextHopPacket 计算目标账户与换汇、缩短过期时间后的 Prepare
	//
	// 业务失败以 *ilp.RejectError 返回。
	GetNextHopPacket(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (*types.NextHopInfo, error)
}
