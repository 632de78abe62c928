package routing

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ccp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// ccpPeer 一个开启 CCP 的对端
type ccpPeer struct {
	settings *types.AccountSettings
	sender   *CcpSender
	receiver *CcpReceiver
	cancel   context.CancelFunc
}

// Broadcaster 路由广播器
type Broadcaster struct {
	cfg        config.RoutingConfig
	parent     types.AccountID
	operator   pkgif.OperatorAddressSupplier
	table      *Table
	forwarding *ForwardingTable
	auth       *RouteAuth
	accounts   pkgif.AccountSettingsRepository
	links      pkgif.LinkManager
	bus        pkgif.EventBus
	clock      clock.Clock

	mu     sync.Mutex
	static map[ilp.AddressPrefix]*types.Route
	locals map[ilp.AddressPrefix]types.AccountID
	peers  map[types.AccountID]*ccpPeer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// BroadcasterDeps 广播器依赖
type BroadcasterDeps struct {
	Operator   pkgif.OperatorAddressSupplier
	Table      *Table
	Forwarding *ForwardingTable
	Auth       *RouteAuth
	Accounts   pkgif.AccountSettingsRepository
	Links      pkgif.LinkManager
	EventBus   pkgif.EventBus
	Clock      clock.Clock
}

// NewBroadcaster 创建广播器
func NewBroadcaster(cfg config.RoutingConfig, parent types.AccountID, deps BroadcasterDeps) (*Broadcaster, error) {
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	b := &Broadcaster{
		cfg:        cfg,
		parent:     parent,
		operator:   deps.Operator,
		table:      deps.Table,
		forwarding: deps.Forwarding,
		auth:       deps.Auth,
		accounts:   deps.Accounts,
		links:      deps.Links,
		bus:        deps.EventBus,
		clock:      clk,
		static:     make(map[ilp.AddressPrefix]*types.Route),
		locals:     make(map[ilp.AddressPrefix]types.AccountID),
		peers:      make(map[types.AccountID]*ccpPeer),
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())

	for _, sr := range cfg.StaticRoutes {
		prefix, err := ilp.ParsePrefix(sr.Prefix)
		if err != nil {
			return nil, fmt.Errorf("static route: %w", err)
		}
		route := &types.Route{
			Prefix:           prefix,
			NextHopAccountID: types.AccountID(sr.NextHop),
			Auth:             b.auth.Sign([]byte(prefix)),
		}
		if sr.SourcePrefixRestriction != "" {
			re, err := regexp.Compile(sr.SourcePrefixRestriction)
			if err != nil {
				return nil, fmt.Errorf("static route %s: %w", prefix, err)
			}
			route.SourcePrefixRestriction = re
		}
		b.static[prefix] = route
	}
	return b, nil
}

// Table 本地路由表
func (b *Broadcaster) Table() *Table { return b.table }

// ForwardingTable 转发路由表
func (b *Broadcaster) ForwardingTable() *ForwardingTable { return b.forwarding }

// Start 加载账户、计算初始路由并启动后台任务
func (b *Broadcaster) Start(ctx context.Context) error {
	if b.operator.Address().IsZero() {
		return ErrNoOperatorAddress
	}

	if b.bus != nil {
		if err := b.subscribeLinkEvents(); err != nil {
			return err
		}
	}

	all, err := b.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, s := range all {
		b.RegisterAccount(s)
	}
	b.reconcile(b.candidatePrefixes()...)

	b.wg.Add(1)
	go b.pruneLoop()

	logger.Info("路由广播器已启动", "address", b.operator.Address(), "routes", len(b.table.Routes()))
	return nil
}

// Stop 停止全部后台任务
func (b *Broadcaster) Stop() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

// RegisterAccount 登记账户
//
// 子账户产生本地路由；开启路由收发的非内部账户建立 CCP 对端，
// 接收方向会立即向对端请求同步。
func (b *Broadcaster) RegisterAccount(settings *types.AccountSettings) {
	self := b.operator.Address()
	var changed []ilp.AddressPrefix

	b.mu.Lock()
	if settings.IsChild() && !settings.Internal {
		if addr, err := self.With(string(settings.AccountID)); err == nil {
			b.locals[addr.Prefix()] = settings.AccountID
			changed = append(changed, addr.Prefix())
		} else {
			logger.Warn("子账户无法生成地址", "account", settings.AccountID, "error", err)
		}
	}
	var p *ccpPeer
	if b.ccpEnabled(settings) {
		p = b.peerLocked(settings)
	}
	b.mu.Unlock()

	b.reconcile(changed...)
	if p != nil && settings.ReceiveRoutes {
		b.requestSync(p)
	}
}

// UnregisterAccount 移除账户的本地路由与对端状态
func (b *Broadcaster) UnregisterAccount(id types.AccountID) {
	var changed []ilp.AddressPrefix

	b.mu.Lock()
	for prefix, owner := range b.locals {
		if owner == id {
			delete(b.locals, prefix)
			changed = append(changed, prefix)
		}
	}
	if p, ok := b.peers[id]; ok {
		p.cancel()
		changed = append(changed, p.receiver.Reset()...)
		delete(b.peers, id)
	}
	b.mu.Unlock()

	b.reconcile(changed...)
}

func (b *Broadcaster) ccpEnabled(s *types.AccountSettings) bool {
	return !s.Internal && (s.SendRoutes || s.ReceiveRoutes)
}

// peerLocked 返回或创建对端，调用方持有 b.mu
func (b *Broadcaster) peerLocked(settings *types.AccountSettings) *ccpPeer {
	if p, ok := b.peers[settings.AccountID]; ok {
		p.settings = settings
		return p
	}
	ctx, cancel := context.WithCancel(b.ctx)
	p := &ccpPeer{
		settings: settings,
		receiver: NewCcpReceiver(settings.AccountID, b.cfg.RouteExpiry.Duration()),
		cancel:   cancel,
	}
	p.sender = NewCcpSender(settings.AccountID, b.forwarding, b.operator, b.sendTo(p), b.clock, SenderConfig{
		Interval:            b.cfg.BroadcastInterval.Duration(),
		HoldDown:            b.cfg.RouteExpiry.Duration(),
		MaxEpochsPerMessage: b.cfg.MaxEpochsPerMessage,
	})
	b.peers[settings.AccountID] = p

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		p.sender.Run(ctx)
	}()
	logger.Debug("已建立 CCP 对端", "peer", settings.AccountID,
		"send", settings.SendRoutes, "receive", settings.ReceiveRoutes)
	return p
}

func (b *Broadcaster) peer(settings *types.AccountSettings) *ccpPeer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peerLocked(settings)
}

// sendTo 经对端链路直接发送
func (b *Broadcaster) sendTo(p *ccpPeer) PacketSender {
	return func(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error) {
		b.mu.Lock()
		settings := p.settings
		b.mu.Unlock()
		link, err := b.links.GetOrCreateLink(ctx, settings)
		if err != nil {
			return nil, err
		}
		return link.SendPacket(ctx, prepare)
	}
}

// ============================================================================
//                              对等协议入口
// ============================================================================

// HandleRouteControl 处理对端的路由控制请求
func (b *Broadcaster) HandleRouteControl(_ context.Context, source *types.AccountSettings, req *ccp.RouteControlRequest) error {
	if !source.SendRoutes {
		return ErrCcpSendingDisabled
	}
	b.peer(source).sender.HandleRouteControlRequest(req)
	return nil
}

// HandleRouteUpdate 处理对端的路由更新
func (b *Broadcaster) HandleRouteUpdate(_ context.Context, source *types.AccountSettings, req *ccp.RouteUpdateRequest) error {
	if !source.ReceiveRoutes {
		return ErrCcpReceivingDisabled
	}
	p := b.peer(source)
	changed, resync := p.receiver.HandleRouteUpdateRequest(req, b.operator.Address(), b.clock.Now())
	b.reconcile(changed...)
	if resync {
		b.requestSync(p)
	}
	return nil
}

// requestSync 异步向对端发送 SYNC 控制请求
func (b *Broadcaster) requestSync(p *ccpPeer) {
	req := p.receiver.ControlRequest()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(b.ctx, ccp.MessageTimeout)
		defer cancel()

		resp, err := b.sendTo(p)(ctx, ccp.NewControlPrepare(req, b.clock.Now()))
		if err != nil {
			logger.Debug("发送路由控制请求失败", "peer", p.receiver.peer, "error", err)
			return
		}
		if reject, ok := ilp.AsRejectResponse(resp); ok {
			logger.Debug("路由控制请求被拒绝", "peer", p.receiver.peer, "code", reject.Code, "message", reject.Message)
		}
	}()
}

// ============================================================================
//                              选路
// ============================================================================

// reconcile 为每个前缀重新选路并更新两张表
func (b *Broadcaster) reconcile(prefixes ...ilp.AddressPrefix) {
	if len(prefixes) == 0 {
		return
	}
	now := b.clock.Now()

	b.mu.Lock()
	advertised := false
	seen := make(map[ilp.AddressPrefix]struct{}, len(prefixes))
	for _, prefix := range prefixes {
		if _, dup := seen[prefix]; dup {
			continue
		}
		seen[prefix] = struct{}{}

		best, advertise := b.selectLocked(prefix, now)
		if best == nil {
			if _, ok := b.table.RemoveRoute(prefix); ok {
				logger.Debug("路由已移除", "prefix", prefix)
			}
			advertised = b.forwarding.Withdraw(prefix) || advertised
			continue
		}
		b.table.AddRoute(best)
		if advertise {
			advertised = b.forwarding.Set(b.forwardingRoute(best)) || advertised
		} else {
			advertised = b.forwarding.Withdraw(prefix) || advertised
		}
	}
	var senders []*CcpSender
	if advertised {
		for _, p := range b.peers {
			senders = append(senders, p.sender)
		}
	}
	b.mu.Unlock()

	for _, s := range senders {
		s.Kick()
	}
}

// selectLocked 选出前缀的最优路由，advertise 表示是否对外通告
func (b *Broadcaster) selectLocked(prefix ilp.AddressPrefix, now time.Time) (*types.Route, bool) {
	if r, ok := b.static[prefix]; ok {
		return r, true
	}

	self := b.operator.Address()
	if prefix == self.Prefix() {
		return &types.Route{
			Prefix:           prefix,
			NextHopAccountID: types.PingAccountID,
			Auth:             b.auth.Sign([]byte(prefix)),
		}, true
	}
	if id, ok := b.locals[prefix]; ok {
		return &types.Route{
			Prefix:           prefix,
			NextHopAccountID: id,
			Auth:             b.auth.Sign([]byte(prefix)),
		}, true
	}

	var best *types.Route
	for _, p := range b.peers {
		r, ok := p.receiver.Route(prefix, now)
		if !ok || r.PathContains(self) {
			continue
		}
		if best == nil || len(r.Path) < len(best.Path) ||
			(len(r.Path) == len(best.Path) && r.NextHopAccountID < best.NextHopAccountID) {
			best = r
		}
	}
	if best != nil {
		return best, true
	}

	if b.parent != "" && prefix == b.defaultPrefix() {
		return &types.Route{Prefix: prefix, NextHopAccountID: b.parent}, false
	}
	return nil, false
}

// defaultPrefix 指向父账户的默认路由前缀：本节点地址的分配方案
func (b *Broadcaster) defaultPrefix() ilp.AddressPrefix {
	return ilp.AddressPrefix(b.operator.Address().Scheme())
}

// forwardingRoute 本节点对外通告的形式：路径前加本节点地址，auth 再做一次 HMAC
func (b *Broadcaster) forwardingRoute(best *types.Route) *types.Route {
	self := b.operator.Address()
	path := make([]ilp.Address, 0, len(best.Path)+1)
	path = append(path, self)
	path = append(path, best.Path...)

	auth := best.Auth
	if len(best.Path) > 0 {
		auth = b.auth.Sign(best.Auth[:])
	}
	return &types.Route{
		Prefix:                  best.Prefix,
		NextHopAccountID:        best.NextHopAccountID,
		Path:                    path,
		Auth:                    auth,
		SourcePrefixRestriction: best.SourcePrefixRestriction,
	}
}

// candidatePrefixes 可能存在路由的全部前缀
func (b *Broadcaster) candidatePrefixes() []ilp.AddressPrefix {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := make(map[ilp.AddressPrefix]struct{})
	for p := range b.static {
		set[p] = struct{}{}
	}
	for p := range b.locals {
		set[p] = struct{}{}
	}
	for _, peer := range b.peers {
		for _, p := range peer.receiver.Prefixes() {
			set[p] = struct{}{}
		}
	}
	for _, r := range b.table.Routes() {
		set[r.Prefix] = struct{}{}
	}
	if self := b.operator.Address(); !self.IsZero() {
		set[self.Prefix()] = struct{}{}
		if b.parent != "" {
			set[b.defaultPrefix()] = struct{}{}
		}
	}

	out := make([]ilp.AddressPrefix, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ============================================================================
//                              后台任务
// ============================================================================

// Prune 清理超过 hold-down 的对端路由，并向这些对端重新请求同步
func (b *Broadcaster) Prune() {
	now := b.clock.Now()
	var changed []ilp.AddressPrefix
	var expired []*ccpPeer

	b.mu.Lock()
	for _, p := range b.peers {
		if p.receiver.Expired(now) {
			dropped := p.receiver.Reset()
			changed = append(changed, dropped...)
			expired = append(expired, p)
			logger.Info("对端路由已过期", "peer", p.settings.AccountID, "routes", len(dropped))
		}
	}
	b.mu.Unlock()

	b.reconcile(changed...)
	for _, p := range expired {
		if p.settings.ReceiveRoutes {
			b.requestSync(p)
		}
	}
}

func (b *Broadcaster) pruneLoop() {
	defer b.wg.Done()
	ticker := b.clock.Ticker(b.cfg.CleanupInterval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			b.Prune()
		}
	}
}

func (b *Broadcaster) subscribeLinkEvents() error {
	connected, err := b.bus.Subscribe(new(types.EvtLinkConnected))
	if err != nil {
		return err
	}
	disconnected, err := b.bus.Subscribe(new(types.EvtLinkDisconnected))
	if err != nil {
		connected.Close()
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer connected.Close()
		defer disconnected.Close()

		for {
			select {
			case <-b.ctx.Done():
				return
			case e, ok := <-connected.Out():
				if !ok {
					return
				}
				b.onLinkConnected(e.(types.EvtLinkConnected).AccountID)
			case e, ok := <-disconnected.Out():
				if !ok {
					return
				}
				b.onLinkDisconnected(e.(types.EvtLinkDisconnected).AccountID)
			}
		}
	}()
	return nil
}

// onLinkConnected 链路重新连接后请求同步
func (b *Broadcaster) onLinkConnected(id types.AccountID) {
	b.mu.Lock()
	p, ok := b.peers[id]
	b.mu.Unlock()
	if ok && p.settings.ReceiveRoutes {
		b.requestSync(p)
	}
}

// onLinkDisconnected 发送端转为 IDLE，丢弃从该对端学习到的路由
func (b *Broadcaster) onLinkDisconnected(id types.AccountID) {
	b.mu.Lock()
	p, ok := b.peers[id]
	var dropped []ilp.AddressPrefix
	if ok {
		p.sender.SetIdle()
		dropped = p.receiver.Reset()
	}
	b.mu.Unlock()

	if ok {
		logger.Info("对端链路断开，撤销其路由", "peer", id, "routes", len(dropped))
		b.reconcile(dropped...)
	}
}
