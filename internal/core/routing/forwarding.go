package routing

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// ForwardingTable 转发路由表：按纪元排列的路由变更日志
//
// 第 i 条日志的纪元为 i，CurrentEpoch 等于日志长度，只增不减。
// 同一前缀被再次更新时，旧日志项置为 nil，区间查询跳过它们。
// Reset 清空日志并更换表 ID，对端据此丢弃增量同步状态。
type ForwardingTable struct {
	mu      sync.RWMutex
	id      uuid.UUID
	log     []*types.RouteUpdate
	current map[ilp.AddressPrefix]int
}

// NewForwardingTable 创建转发路由表
func NewForwardingTable() *ForwardingTable {
	return &ForwardingTable{
		id:      uuid.New(),
		current: make(map[ilp.AddressPrefix]int),
	}
}

// ID 路由表 ID
func (f *ForwardingTable) ID() uuid.UUID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.id
}

// CurrentEpoch 当前纪元
func (f *ForwardingTable) CurrentEpoch() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint32(len(f.log))
}

// Route 前缀当前通告的路由
func (f *ForwardingTable) Route(prefix ilp.AddressPrefix) (*types.Route, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i, ok := f.current[prefix]
	if !ok || f.log[i].Route == nil {
		return nil, false
	}
	return f.log[i].Route, true
}

// Set 通告前缀的路由，与当前通告相同时不产生新纪元
func (f *ForwardingTable) Set(route *types.Route) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.current[route.Prefix]; ok && sameAdvertisement(f.log[i].Route, route) {
		return false
	}
	f.append(route.Prefix, route)
	return true
}

// Withdraw 撤销前缀，当前未通告时不产生新纪元
func (f *ForwardingTable) Withdraw(prefix ilp.AddressPrefix) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.current[prefix]
	if !ok || f.log[i].Route == nil {
		return false
	}
	f.append(prefix, nil)
	return true
}

func (f *ForwardingTable) append(prefix ilp.AddressPrefix, route *types.Route) {
	if i, ok := f.current[prefix]; ok {
		f.log[i] = nil
	}
	epoch := uint32(len(f.log))
	f.log = append(f.log, &types.RouteUpdate{Epoch: epoch, Prefix: prefix, Route: route})
	f.current[prefix] = int(epoch)
}

// UpdateBatch 一次增量同步的内容，各字段来自同一时刻
type UpdateBatch struct {
	TableID      uuid.UUID
	CurrentEpoch uint32
	FromEpoch    uint32
	ToEpoch      uint32

	// Updates [FromEpoch, ToEpoch) 内未被取代的变更
	Updates []*types.RouteUpdate
}

// UpdatesSince 读取从 from 开始至多 max 个纪元的变更
//
// from 超过当前纪元时从 0 开始。max 为 0 表示不限制。
func (f *ForwardingTable) UpdatesSince(from, max uint32) UpdateBatch {
	f.mu.RLock()
	defer f.mu.RUnlock()
	current := uint32(len(f.log))
	if from > current {
		from = 0
	}
	to := current
	if max > 0 && to-from > max {
		to = from + max
	}
	return UpdateBatch{
		TableID:      f.id,
		CurrentEpoch: current,
		FromEpoch:    from,
		ToEpoch:      to,
		Updates:      f.rangeLocked(from, to),
	}
}

// GetUpdatesInRange 返回 [from, to) 内未被取代的变更
func (f *ForwardingTable) GetUpdatesInRange(from, to uint32) []*types.RouteUpdate {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rangeLocked(from, to)
}

func (f *ForwardingTable) rangeLocked(from, to uint32) []*types.RouteUpdate {
	if n := uint32(len(f.log)); to > n {
		to = n
	}
	var out []*types.RouteUpdate
	for i := from; i < to; i++ {
		if u := f.log[i]; u != nil {
			out = append(out, u)
		}
	}
	return out
}

// Reset 清空并更换表 ID
func (f *ForwardingTable) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.id = uuid.New()
	f.log = nil
	f.current = make(map[ilp.AddressPrefix]int)
}

// sameAdvertisement 两条路由对外通告的内容是否相同
func sameAdvertisement(a, b *types.Route) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Prefix != b.Prefix || a.NextHopAccountID != b.NextHopAccountID || a.Auth != b.Auth || len(a.Path) != len(b.Path) {
		return false
	}
	for i := range a.Path {
		if a.Path[i] != b.Path[i] {
			return false
		}
	}
	ra, rb := a.SourcePrefixRestriction, b.SourcePrefixRestriction
	if ra == nil || rb == nil {
		return ra == rb
	}
	return ra.String() == rb.String()
}
