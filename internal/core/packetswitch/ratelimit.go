package packetswitch

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// RateLimitFilter 按账户限制每秒数据包数
//
// 令牌桶按账户懒创建并缓存，空闲淘汰后状态丢失。
type RateLimitFilter struct {
	operator pkgif.OperatorAddressSupplier

	mu       sync.Mutex
	limiters *expirable.LRU[types.AccountID, *rate.Limiter]
}

// NewRateLimitFilter 创建过滤器
func NewRateLimitFilter(operator pkgif.OperatorAddressSupplier, size int, idle time.Duration) *RateLimitFilter {
	return &RateLimitFilter{
		operator: operator,
		limiters: expirable.NewLRU[types.AccountID, *rate.Limiter](size, nil, idle),
	}
}

// DoFilter 实现 PacketSwitchFilter
func (f *RateLimitFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	if l := f.limiter(source); l != nil && !l.Allow() {
		logger.Debug("超出速率限制", "account", source.AccountID)
		return ilp.NewReject(ilp.F00BadRequest, f.operator.Address(), "Rate Limit exceeded"), nil
	}
	return chain.DoFilter(ctx, source, prepare)
}

func (f *RateLimitFilter) limiter(source *types.AccountSettings) *rate.Limiter {
	if source.RateLimit == nil || source.RateLimit.MaxPacketsPerSecond <= 0 {
		return nil
	}
	n := source.RateLimit.MaxPacketsPerSecond

	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters.Get(source.AccountID)
	if !ok || l.Limit() != rate.Limit(n) || l.Burst() != n {
		l = rate.NewLimiter(rate.Limit(n), n)
		f.limiters.Add(source.AccountID, l)
	}
	return l
}
