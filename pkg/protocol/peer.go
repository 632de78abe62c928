package protocol

import "github.com/dep2p/go-ilp-connector/pkg/ilp"

// ============================================================================
//                          对等协议地址
// ============================================================================
//
// 对等协议数据包的目的地址位于 "peer." 分配方案下，
// 只在直接相连的两个节点之间交换，不参与路由。

// PeerScheme 对等协议分配方案
const PeerScheme = "peer"

// 对等协议目的地址
var (
	// IldcpAddress IL-DCP 配置请求
	IldcpAddress = ilp.MustParseAddress("peer.config")

	// RouteControlAddress CCP 路由控制请求
	RouteControlAddress = ilp.MustParseAddress("peer.route.control")

	// RouteUpdateAddress CCP 路由更新请求
	RouteUpdateAddress = ilp.MustParseAddress("peer.route.update")
)

// IsPeerProtocol 判断目的地址是否属于对等协议
func IsPeerProtocol(dest ilp.Address) bool {
	return dest.Scheme() == PeerScheme
}
