package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ccp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// PacketSender 直接经链路发送数据包，不经过交换过滤链
type PacketSender func(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error)

// SenderConfig 发送端参数
type SenderConfig struct {
	// Interval 心跳间隔
	Interval time.Duration

	// HoldDown 告知对端的路由保持时间
	HoldDown time.Duration

	// MaxEpochsPerMessage 单条消息最多覆盖的纪元数
	MaxEpochsPerMessage uint32
}

// CcpSender 向单个对端增量同步转发路由表
//
// 对端发来 SYNC 控制请求后进入 SYNC 模式，按心跳或路由变更发送 [from, to) 区间的更新；
// 对端确认后推进 from。IDLE 模式下不发送任何消息。
type CcpSender struct {
	peer     types.AccountID
	table    *ForwardingTable
	operator pkgif.OperatorAddressSupplier
	send     PacketSender
	clock    clock.Clock
	cfg      SenderConfig

	mu        sync.Mutex
	mode      ccp.Mode
	tableID   uuid.UUID
	nextEpoch uint32

	// sendMu 串行化更新消息
	sendMu sync.Mutex
	kick   chan struct{}
}

// NewCcpSender 创建发送端，初始为 IDLE
func NewCcpSender(peer types.AccountID, table *ForwardingTable, operator pkgif.OperatorAddressSupplier,
	send PacketSender, clk clock.Clock, cfg SenderConfig) *CcpSender {
	return &CcpSender{
		peer:     peer,
		table:    table,
		operator: operator,
		send:     send,
		clock:    clk,
		cfg:      cfg,
		mode:     ccp.ModeIdle,
		kick:     make(chan struct{}, 1),
	}
}

// Mode 当前模式
func (s *CcpSender) Mode() ccp.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// NextEpoch 对端已确认到的纪元
func (s *CcpSender) NextEpoch() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextEpoch
}

// HandleRouteControlRequest 处理对端的路由控制请求
//
// 对端已知的表 ID 与本地不同时从纪元 0 重新同步。
func (s *CcpSender) HandleRouteControlRequest(req *ccp.RouteControlRequest) {
	current := s.table.ID()

	s.mu.Lock()
	prev := s.mode
	s.mode = req.Mode
	if req.Mode == ccp.ModeSync {
		if req.LastKnownRoutingTableID == current {
			s.nextEpoch = req.LastKnownEpoch
		} else {
			s.nextEpoch = 0
		}
		s.tableID = current
	}
	next := s.nextEpoch
	s.mu.Unlock()

	if prev != req.Mode {
		logger.Debug("路由发送模式变更", "peer", s.peer, "from", prev, "to", req.Mode, "epoch", next)
	}
	if req.Mode == ccp.ModeSync {
		s.Kick()
	}
}

// SetIdle 切换到 IDLE，例如链路断开时
func (s *CcpSender) SetIdle() {
	s.mu.Lock()
	s.mode = ccp.ModeIdle
	s.mu.Unlock()
}

// Kick 请求尽快发送一次更新，不阻塞
func (s *CcpSender) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run 心跳循环，ctx 取消时返回
func (s *CcpSender) Run(ctx context.Context) {
	ticker := s.clock.Ticker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.kick:
		}
		if err := s.SendRouteUpdate(ctx); err != nil {
			logger.Debug("发送路由更新失败", "peer", s.peer, "error", err)
		}
	}
}

// SendRouteUpdate 在 SYNC 模式下发送一批更新
//
// 即使区间为空也会发送，作为心跳刷新对端的 hold-down。
func (s *CcpSender) SendRouteUpdate(ctx context.Context) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	mode, from, knownID := s.mode, s.nextEpoch, s.tableID
	s.mu.Unlock()
	if mode != ccp.ModeSync {
		return nil
	}

	self := s.operator.Address()
	if self.IsZero() {
		return ErrNoOperatorAddress
	}

	batch := s.table.UpdatesSince(from, s.cfg.MaxEpochsPerMessage)
	if batch.TableID != knownID {
		batch = s.table.UpdatesSince(0, s.cfg.MaxEpochsPerMessage)
	}

	req := s.buildRequest(self, batch)
	ctx, cancel := context.WithTimeout(ctx, ccp.MessageTimeout)
	defer cancel()

	resp, err := s.send(ctx, ccp.NewUpdatePrepare(req, s.clock.Now()))
	if err != nil {
		return fmt.Errorf("send route update: %w", err)
	}
	if reject, ok := ilp.AsRejectResponse(resp); ok {
		return fmt.Errorf("route update rejected: %s %s", reject.Code, reject.Message)
	}

	s.mu.Lock()
	// 发送期间对端可能重新请求同步，此时不推进
	advanced := s.mode == ccp.ModeSync && s.nextEpoch == from && s.tableID == knownID
	if advanced {
		s.nextEpoch = batch.ToEpoch
		s.tableID = batch.TableID
	}
	s.mu.Unlock()

	if advanced && batch.ToEpoch < batch.CurrentEpoch {
		s.Kick()
	}
	return nil
}

func (s *CcpSender) buildRequest(self ilp.Address, batch UpdateBatch) *ccp.RouteUpdateRequest {
	req := &ccp.RouteUpdateRequest{
		RoutingTableID:    batch.TableID,
		CurrentEpochIndex: batch.CurrentEpoch,
		FromEpochIndex:    batch.FromEpoch,
		ToEpochIndex:      batch.ToEpoch,
		HoldDownTime:      s.cfg.HoldDown,
		Speaker:           self,
	}

	// 对端在本节点下的地址，用于来源前缀限制
	peerAddr, err := self.With(string(s.peer))
	if err != nil {
		peerAddr = ""
	}

	for _, u := range batch.Updates {
		r := u.Route
		// 水平分割：不把经由对端的路由通告回对端
		if r == nil || r.NextHopAccountID == s.peer || !r.AdvertisableTo(peerAddr) {
			req.WithdrawnRoutes = append(req.WithdrawnRoutes, u.Prefix)
			continue
		}
		req.NewRoutes = append(req.NewRoutes, ccp.Route{
			Prefix: r.Prefix,
			Path:   r.Path,
			Auth:   r.Auth,
		})
	}
	return req
}
