package link

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var logger = log.Logger("core/link")

// Manager 链路管理器
//
// 按账户缓存链路；首次使用时用链路类型对应的工厂创建并连接。
// 所有链路的入站数据包都交给同一个 InboundHandler，并带上链路的账户 ID。
type Manager struct {
	ping *PingLoopbackLink

	mu        sync.RWMutex
	factories map[types.LinkType]pkgif.LinkFactory
	links     map[types.AccountID]pkgif.Link
	inbound   pkgif.InboundHandler
	closed    bool

	connected    pkgif.Emitter
	disconnected pkgif.Emitter
}

// NewManager 创建链路管理器，内置 ping 回环与本地回环工厂
//
// bus 为 nil 时不发射链路事件。
func NewManager(operator pkgif.OperatorAddressSupplier, bus pkgif.EventBus) (*Manager, error) {
	m := &Manager{
		ping:      NewPingLoopbackLink(operator),
		factories: make(map[types.LinkType]pkgif.LinkFactory),
		links:     make(map[types.AccountID]pkgif.Link),
	}
	m.RegisterFactory(pingFactory{link: m.ping})
	m.RegisterFactory(loopbackFactory{operator: operator})

	if bus != nil {
		var err error
		if m.connected, err = bus.Emitter(new(types.EvtLinkConnected)); err != nil {
			return nil, err
		}
		if m.disconnected, err = bus.Emitter(new(types.EvtLinkDisconnected)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterFactory 注册链路工厂，同类型覆盖
func (m *Manager) RegisterFactory(factory pkgif.LinkFactory) {
	m.mu.Lock()
	m.factories[factory.LinkType()] = factory
	m.mu.Unlock()
}

// SetInboundHandler 设置入站处理器
func (m *Manager) SetInboundHandler(handler pkgif.InboundHandler) {
	m.mu.Lock()
	m.inbound = handler
	m.mu.Unlock()
}

// PingLink ping 回环链路
func (m *Manager) PingLink() pkgif.Link {
	return m.ping
}

// Link 查找已有链路
func (m *Manager) Link(id types.AccountID) (pkgif.Link, bool) {
	if id == types.PingAccountID {
		return m.ping, true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.links[id]
	return l, ok
}

// GetOrCreateLink 返回账户的链路，不存在时创建并连接
func (m *Manager) GetOrCreateLink(ctx context.Context, settings *types.AccountSettings) (pkgif.Link, error) {
	if settings.AccountID == types.PingAccountID {
		return m.ping, nil
	}
	if l, ok := m.Link(settings.AccountID); ok {
		return l, nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if l, ok := m.links[settings.AccountID]; ok {
		m.mu.Unlock()
		return l, nil
	}
	factory, ok := m.factories[settings.LinkType]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %q (account %s)", ErrUnsupportedLinkType, settings.LinkType, settings.AccountID)
	}
	l, err := factory.NewLink(settings)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("create link for %s: %w", settings.AccountID, err)
	}
	m.links[settings.AccountID] = l
	m.mu.Unlock()

	if err := m.attach(ctx, l); err != nil {
		m.mu.Lock()
		delete(m.links, settings.AccountID)
		m.mu.Unlock()
		return nil, err
	}
	logger.Debug("已创建链路", "account", settings.AccountID, "type", settings.LinkType)
	return l, nil
}

// RegisterLink 注册预先构造的链路并连接
func (m *Manager) RegisterLink(ctx context.Context, l pkgif.Link) error {
	id := l.AccountID()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if _, exists := m.links[id]; exists {
		m.mu.Unlock()
		return fmt.Errorf("link: account %s already has a link", id)
	}
	m.links[id] = l
	m.mu.Unlock()

	if err := m.attach(ctx, l); err != nil {
		m.mu.Lock()
		delete(m.links, id)
		m.mu.Unlock()
		return err
	}
	return nil
}

// attach 注册入站处理器并连接
func (m *Manager) attach(ctx context.Context, l pkgif.Link) error {
	id := l.AccountID()
	if err := l.RegisterPacketHandler(m.dispatcher(id)); err != nil {
		return fmt.Errorf("register handler for %s: %w", id, err)
	}
	if err := l.Connect(ctx); err != nil {
		l.UnregisterPacketHandler()
		return fmt.Errorf("connect %s: %w", id, err)
	}
	if m.connected != nil {
		_ = m.connected.Emit(types.EvtLinkConnected{AccountID: id, Time: time.Now()})
	}
	return nil
}

// dispatcher 把链路上的入站数据包交给当前入站处理器
func (m *Manager) dispatcher(id types.AccountID) pkgif.PacketHandler {
	return func(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error) {
		m.mu.RLock()
		h := m.inbound
		m.mu.RUnlock()
		if h == nil {
			return nil, ErrNoInboundHandler
		}
		return h(ctx, id, prepare)
	}
}

// RemoveLink 断开并移除链路
func (m *Manager) RemoveLink(ctx context.Context, id types.AccountID) error {
	m.mu.Lock()
	l, ok := m.links[id]
	delete(m.links, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.detach(ctx, l)
}

func (m *Manager) detach(ctx context.Context, l pkgif.Link) error {
	l.UnregisterPacketHandler()
	err := l.Disconnect(ctx)
	if m.disconnected != nil {
		_ = m.disconnected.Emit(types.EvtLinkDisconnected{AccountID: l.AccountID(), Time: time.Now()})
	}
	return err
}

// ConnectedAccounts 已连接链路的账户，按 ID 排序
func (m *Manager) ConnectedAccounts() []types.AccountID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.AccountID, 0, len(m.links))
	for id, l := range m.links {
		if l.IsConnected() {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close 断开全部链路，汇总错误
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	links := m.links
	m.links = make(map[types.AccountID]pkgif.Link)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	for _, l := range links {
		err = multierr.Append(err, m.detach(ctx, l))
	}
	if m.connected != nil {
		err = multierr.Append(err, m.connected.Close())
	}
	if m.disconnected != nil {
		err = multierr.Append(err, m.disconnected.Close())
	}
	logger.Info("链路管理器已关闭", "links", len(links))
	return err
}

var _ pkgif.LinkManager = (*Manager)(nil)
