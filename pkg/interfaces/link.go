package interfaces

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// PacketHandler 处理链路上收到的 Prepare
//
// 返回的 error 仅表示内部故障，由调用方转换为 T00 Reject。
type PacketHandler func(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error)

// Link 双向链路
//
// 核心对所有出站跳一视同仁：无论底层是 HTTP、WebSocket 还是进程内回环，
// 都通过 SendPacket 发送 Prepare 并同步得到应答。
type Link interface {
	// AccountID 链路对应的账户
	AccountID() types.AccountID

	// Connect 建立连接，已连接时为空操作
	Connect(ctx context.Context) error

	// Disconnect 断开连接，已断开时为空操作
	Disconnect(ctx context.Context) error

	// IsConnected 是否已连接
	IsConnected() bool

	// SendPacket 发送 Prepare 并等待应答
	//
	// 实现必须遵守 ctx 的截止时间。
	SendPacket(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error)

	// RegisterPacketHandler 注册入站处理器，重复注册返回错误
	RegisterPacketHandler(handler PacketHandler) error

	// UnregisterPacketHandler 移除入站处理器
	UnregisterPacketHandler()
}

// LinkFactory 按链路类型创建链路
type LinkFactory interface {
	// LinkType 支持的链路类型
	LinkType() types.LinkType

	// NewLink 为账户创建链路（未连接）
	NewLink(settings *types.AccountSettings) (Link, error)
}

// InboundHandler 带来源账户的入站处理器，由数据包交换注册到链路管理器
type InboundHandler func(ctx context.Context, source types.AccountID, prepare *ilp.Prepare) (ilp.Response, error)

// LinkManager 链路注册表
type LinkManager interface {
	// GetOrCreateLink 返回账户的链路，不存在时用对应工厂创建并连接
	GetOrCreateLink(ctx context.Context, settings *types.AccountSettings) (Link, error)

	// Link 查找已存在的链路
	Link(accountID types.AccountID) (Link, bool)

	// RegisterLink 预先注册链路（例如进程内管道）
	RegisterLink(ctx context.Context, link Link) error

	// RemoveLink 断开并移除链路
	RemoveLink(ctx context.Context, accountID types.AccountID) error

	// RegisterFactory 注册链路工厂
	RegisterFactory(factory LinkFactory)

	// PingLink 内部 ping 回环链路
	PingLink() Link

	// SetInboundHandler 设置所有链路共用的入站处理器
	SetInboundHandler(handler InboundHandler)

	// ConnectedAccounts 当前已连接链路的账户
	ConnectedAccounts() []types.AccountID

	// Close 断开全部链路
	Close() error
}
