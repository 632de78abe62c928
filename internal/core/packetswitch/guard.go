package packetswitch

import (
	"context"
	"sync/atomic"
)

const (
	guardPending int32 = iota
	guardCommitted
	guardAbandoned
)

// resolutionGuard 每个请求的记账闸门
//
// ExpiryFilter 超时放弃请求与 BalanceFilter 记账互斥：
// 两者对同一状态做 CAS，只有一方成功。
type resolutionGuard struct {
	state atomic.Int32
}

// Commit 由记账方调用，返回 false 表示请求已被放弃
func (g *resolutionGuard) Commit() bool {
	if g == nil {
		return true
	}
	return g.state.CompareAndSwap(guardPending, guardCommitted)
}

// Abandon 由超时方调用，返回 false 表示已经记账
func (g *resolutionGuard) Abandon() bool {
	if g == nil {
		return true
	}
	return g.state.CompareAndSwap(guardPending, guardAbandoned)
}

type guardKey struct{}

func withGuard(ctx context.Context, g *resolutionGuard) context.Context {
	return context.WithValue(ctx, guardKey{}, g)
}

func guardFrom(ctx context.Context) *resolutionGuard {
	g, _ := ctx.Value(guardKey{}).(*resolutionGuard)
	return g
}
