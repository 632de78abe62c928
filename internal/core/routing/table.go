package routing

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// Table 写时复制的本地路由表
//
// 写操作在互斥锁内复制当前快照、修改后原子替换；
// Lookup 只读取不可变快照，不加锁。
type Table struct {
	mu   sync.Mutex
	snap atomic.Pointer[map[ilp.AddressPrefix]*types.Route]
}

// NewTable 创建空路由表
func NewTable() *Table {
	t := &Table{}
	empty := make(map[ilp.AddressPrefix]*types.Route)
	t.snap.Store(&empty)
	return t
}

func (t *Table) routes() map[ilp.AddressPrefix]*types.Route {
	return *t.snap.Load()
}

// Lookup 最长前缀匹配：从完整地址开始逐段缩短
func (t *Table) Lookup(dest ilp.Address) (*types.Route, bool) {
	routes := t.routes()
	s := string(dest)
	for {
		if r, ok := routes[ilp.AddressPrefix(s)]; ok {
			return r, true
		}
		i := strings.LastIndexByte(s, '.')
		if i < 0 {
			return nil, false
		}
		s = s[:i]
	}
}

// mutate 复制快照并替换
func (t *Table) mutate(fn func(m map[ilp.AddressPrefix]*types.Route)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.routes()
	next := make(map[ilp.AddressPrefix]*types.Route, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	fn(next)
	t.snap.Store(&next)
}

// AddRoute 新增或替换路由
func (t *Table) AddRoute(route *types.Route) {
	t.mutate(func(m map[ilp.AddressPrefix]*types.Route) {
		m[route.Prefix] = route
	})
}

// RemoveRoute 删除路由
func (t *Table) RemoveRoute(prefix ilp.AddressPrefix) (*types.Route, bool) {
	var removed *types.Route
	t.mutate(func(m map[ilp.AddressPrefix]*types.Route) {
		removed = m[prefix]
		delete(m, prefix)
	})
	return removed, removed != nil
}

// Route 精确查找
func (t *Table) Route(prefix ilp.AddressPrefix) (*types.Route, bool) {
	r, ok := t.routes()[prefix]
	return r, ok
}

// Routes 按前缀排序的全部路由
func (t *Table) Routes() []*types.Route {
	routes := t.routes()
	out := make([]*types.Route, 0, len(routes))
	for _, r := range routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}

// Reset 清空路由表
func (t *Table) Reset() {
	t.mutate(func(m map[ilp.AddressPrefix]*types.Route) {
		for k := range m {
			delete(m, k)
		}
	})
}

var _ pkgif.RoutingTable = (*Table)(nil)
