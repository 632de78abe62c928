package types

import (
	"regexp"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
)

// Route 路由条目
type Route struct {
	Prefix           ilp.AddressPrefix
	NextHopAccountID AccountID

	// Path 路由经过的连接器地址（环路检测）
	Path []ilp.Address

	// ExpiresAt 过期时间，零值表示不过期
	ExpiresAt time.Time

	// Auth 路由认证（HMAC）
	Auth [32]byte

	// SourcePrefixRestriction 只向地址匹配该正则的对端通告，nil 表示不限制
	SourcePrefixRestriction *regexp.Regexp
}

// Expired 在 now 时刻是否已过期
func (r *Route) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now)
}

// AdvertisableTo 是否允许向指定地址的对端通告
func (r *Route) AdvertisableTo(peer ilp.Address) bool {
	return r.SourcePrefixRestriction == nil || r.SourcePrefixRestriction.MatchString(string(peer))
}

// PathContains 路径中是否包含指定地址
func (r *Route) PathContains(addr ilp.Address) bool {
	for _, hop := range r.Path {
		if hop == addr {
			return true
		}
	}
	return false
}

// RouteUpdate 转发路由表的一条日志
//
// Route 为 nil 表示撤销 Prefix。
type RouteUpdate struct {
	Epoch  uint32
	Prefix ilp.AddressPrefix
	Route  *Route
}

// NextHopInfo 下一跳计算结果（瞬时值，不持久化）
type NextHopInfo struct {
	NextHopAccountID AccountID
	NextHopPacket    *ilp.Prepare
}
