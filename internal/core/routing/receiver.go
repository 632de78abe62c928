package routing

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ccp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// CcpReceiver 保存从单个对端学习到的路由
//
// 只接受从 expectedEpoch 开始的更新；对端表 ID 变化时丢弃全部路由。
// 最近一次更新后 hold-down 时间内没有新消息，路由视为过期。
type CcpReceiver struct {
	peer            types.AccountID
	defaultHoldDown time.Duration

	mu            sync.Mutex
	tableID       uuid.UUID
	expectedEpoch uint32
	expiresAt     time.Time
	routes        map[ilp.AddressPrefix]*types.Route
}

// NewCcpReceiver 创建接收端
func NewCcpReceiver(peer types.AccountID, defaultHoldDown time.Duration) *CcpReceiver {
	return &CcpReceiver{
		peer:            peer,
		defaultHoldDown: defaultHoldDown,
		routes:          make(map[ilp.AddressPrefix]*types.Route),
	}
}

// HandleRouteUpdateRequest 应用路由更新
//
// 返回受影响的前缀；resync 为 true 表示纪元不连续，需要向对端重新请求同步。
// 路径中包含 self 的路由会形成环路，直接丢弃。
func (r *CcpReceiver) HandleRouteUpdateRequest(req *ccp.RouteUpdateRequest, self ilp.Address, now time.Time) (changed []ilp.AddressPrefix, resync bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.RoutingTableID != r.tableID {
		if r.tableID != uuid.Nil {
			logger.Info("对端路由表已更换", "peer", r.peer, "old", r.tableID, "new", req.RoutingTableID)
		}
		changed = r.clearLocked()
		r.tableID = req.RoutingTableID
		r.expectedEpoch = 0
	}

	if req.FromEpochIndex != r.expectedEpoch {
		logger.Debug("路由更新纪元不连续", "peer", r.peer,
			"expected", r.expectedEpoch, "from", req.FromEpochIndex, "to", req.ToEpochIndex)
		return changed, true
	}

	holdDown := req.HoldDownTime
	if holdDown <= 0 {
		holdDown = r.defaultHoldDown
	}
	r.expiresAt = now.Add(holdDown)

	for _, prefix := range req.WithdrawnRoutes {
		if _, ok := r.routes[prefix]; ok {
			delete(r.routes, prefix)
			changed = append(changed, prefix)
		}
	}
	for _, nr := range req.NewRoutes {
		route := &types.Route{
			Prefix:           nr.Prefix,
			NextHopAccountID: r.peer,
			Path:             nr.Path,
			Auth:             nr.Auth,
		}
		if route.PathContains(self) {
			if _, ok := r.routes[nr.Prefix]; ok {
				delete(r.routes, nr.Prefix)
				changed = append(changed, nr.Prefix)
			}
			continue
		}
		r.routes[nr.Prefix] = route
		changed = append(changed, nr.Prefix)
	}

	r.expectedEpoch = req.ToEpochIndex
	return changed, false
}

// ControlRequest 构造 SYNC 控制请求，携带已知的表 ID 与纪元
func (r *CcpReceiver) ControlRequest() *ccp.RouteControlRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &ccp.RouteControlRequest{
		Mode:                    ccp.ModeSync,
		LastKnownRoutingTableID: r.tableID,
		LastKnownEpoch:          r.expectedEpoch,
	}
}

// Route 前缀的路由，过期时返回 false
//
// 返回的副本不带 ExpiresAt：心跳会不断延长 hold-down，
// 对端是否仍然有效由接收端判断，超时后由 Broadcaster.Prune 撤销。
func (r *CcpReceiver) Route(prefix ilp.AddressPrefix, now time.Time) (*types.Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[prefix]
	if !ok || r.expiredLocked(now) {
		return nil, false
	}
	cp := *route
	return &cp, true
}

// Prefixes 已学习的全部前缀
func (r *CcpReceiver) Prefixes() []ilp.AddressPrefix {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ilp.AddressPrefix, 0, len(r.routes))
	for p := range r.routes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Expired 是否已超过 hold-down 时间
func (r *CcpReceiver) Expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expiredLocked(now)
}

func (r *CcpReceiver) expiredLocked(now time.Time) bool {
	return !r.expiresAt.IsZero() && !r.expiresAt.After(now)
}

// Reset 丢弃全部路由与同步状态，返回被丢弃的前缀
func (r *CcpReceiver) Reset() []ilp.AddressPrefix {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := r.clearLocked()
	r.tableID = uuid.Nil
	r.expectedEpoch = 0
	r.expiresAt = time.Time{}
	return dropped
}

func (r *CcpReceiver) clearLocked() []ilp.AddressPrefix {
	dropped := make([]ilp.AddressPrefix, 0, len(r.routes))
	for p := range r.routes {
		dropped = append(dropped, p)
	}
	r.routes = make(map[ilp.AddressPrefix]*types.Route)
	return dropped
}
