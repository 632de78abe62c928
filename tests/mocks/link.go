package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// MockLink 模拟 Link 接口实现
type MockLink struct {
	mu sync.Mutex

	ID        types.AccountID
	Connected bool
	handler   interfaces.PacketHandler

	// 可覆盖的方法
	SendPacketFunc func(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error)
	ConnectFunc    func(ctx context.Context) error

	// 调用记录
	sent []*ilp.Prepare
}

// NewMockLink 创建已连接的 MockLink
func NewMockLink(id types.AccountID) *MockLink {
	return &MockLink{ID: id, Connected: true}
}

// AccountID 返回账户 ID
func (m *MockLink) AccountID() types.AccountID {
	return m.ID
}

// Connect 连接
func (m *MockLink) Connect(ctx context.Context) error {
	if m.ConnectFunc != nil {
		if err := m.ConnectFunc(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Connected = true
	m.mu.Unlock()
	return nil
}

// Disconnect 断开
func (m *MockLink) Disconnect(_ context.Context) error {
	m.mu.Lock()
	m.Connected = false
	m.mu.Unlock()
	return nil
}

// IsConnected 是否已连接
func (m *MockLink) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Connected
}

// SendPacket 记录并发送
//
// 未设置 SendPacketFunc 时返回 T01 Reject。
func (m *MockLink) SendPacket(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, prepare)
	fn := m.SendPacketFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prepare)
	}
	return ilp.NewReject(ilp.T01PeerUnreachable, "", "mock link"), nil
}

// Sent 已发送的 Prepare
func (m *MockLink) Sent() []*ilp.Prepare {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ilp.Prepare, len(m.sent))
	copy(out, m.sent)
	return out
}

// RegisterPacketHandler 注册入站处理器
func (m *MockLink) RegisterPacketHandler(handler interfaces.PacketHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handler != nil {
		return errors.New("mock link: handler already registered")
	}
	m.handler = handler
	return nil
}

// UnregisterPacketHandler 移除入站处理器
func (m *MockLink) UnregisterPacketHandler() {
	m.mu.Lock()
	m.handler = nil
	m.mu.Unlock()
}

// Handler 已注册的入站处理器
func (m *MockLink) Handler() interfaces.PacketHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler
}

var _ interfaces.Link = (*MockLink)(nil)

// MockLinkManager 模拟 LinkManager 接口实现
type MockLinkManager struct {
	mu      sync.Mutex
	links   map[types.AccountID]*MockLink
	ping    *MockLink
	inbound interfaces.InboundHandler

	// NewLinkFunc 定制懒创建的链路
	NewLinkFunc func(settings *types.AccountSettings) *MockLink

	// 可覆盖的方法
	GetOrCreateLinkFunc func(ctx context.Context, settings *types.AccountSettings) (interfaces.Link, error)

	// 调用记录
	GetOrCreateCalls []types.AccountID
}

// NewMockLinkManager 创建 MockLinkManager
func NewMockLinkManager() *MockLinkManager {
	return &MockLinkManager{
		links: make(map[types.AccountID]*MockLink),
		ping:  NewMockLink(types.PingAccountID),
	}
}

// GetOrCreateLink 返回或创建 MockLink
func (m *MockLinkManager) GetOrCreateLink(ctx context.Context, settings *types.AccountSettings) (interfaces.Link, error) {
	m.mu.Lock()
	m.GetOrCreateCalls = append(m.GetOrCreateCalls, settings.AccountID)
	fn := m.GetOrCreateLinkFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, settings)
	}
	return m.MockLink(settings), nil
}

// MockLink 返回账户对应的 MockLink，不存在时创建
func (m *MockLinkManager) MockLink(settings *types.AccountSettings) *MockLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	if settings.AccountID == types.PingAccountID {
		return m.ping
	}
	l, ok := m.links[settings.AccountID]
	if !ok {
		if m.NewLinkFunc != nil {
			l = m.NewLinkFunc(settings)
		} else {
			l = NewMockLink(settings.AccountID)
		}
		m.links[settings.AccountID] = l
	}
	return l
}

// Link 查找链路
func (m *MockLinkManager) Link(id types.AccountID) (interfaces.Link, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return nil, false
	}
	return l, true
}

// RegisterLink 注册链路，仅接受 *MockLink
func (m *MockLinkManager) RegisterLink(_ context.Context, link interfaces.Link) error {
	ml, ok := link.(*MockLink)
	if !ok {
		return errors.New("mock link manager: only *MockLink supported")
	}
	m.mu.Lock()
	m.links[ml.ID] = ml
	m.mu.Unlock()
	return nil
}

// RemoveLink 移除链路
func (m *MockLinkManager) RemoveLink(_ context.Context, id types.AccountID) error {
	m.mu.Lock()
	delete(m.links, id)
	m.mu.Unlock()
	return nil
}

// RegisterFactory 空操作
func (m *MockLinkManager) RegisterFactory(interfaces.LinkFactory) {}

// PingLink 返回 ping 链路
func (m *MockLinkManager) PingLink() interfaces.Link {
	return m.ping
}

// SetInboundHandler 记录入站处理器
func (m *MockLinkManager) SetInboundHandler(handler interfaces.InboundHandler) {
	m.mu.Lock()
	m.inbound = handler
	m.mu.Unlock()
}

// Inbound 已设置的入站处理器
func (m *MockLinkManager) Inbound() interfaces.InboundHandler {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inbound
}

// ConnectedAccounts 已连接的账户
func (m *MockLinkManager) ConnectedAccounts() []types.AccountID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.AccountID
	for id, l := range m.links {
		if l.IsConnected() {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close 空操作
func (m *MockLinkManager) Close() error {
	return nil
}

var _ interfaces.LinkManager = (*MockLinkManager)(nil)
