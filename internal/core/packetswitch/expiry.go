package packetswitch

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// ExpiryFilter 以 Prepare 的过期时间约束后续处理
//
// 已过期的 Prepare 直接 R02；否则后续链在独立 goroutine 中执行，
// 截止时间先到则 R00，迟到的结果被丢弃。
type ExpiryFilter struct {
	operator pkgif.OperatorAddressSupplier
	clock    clock.Clock
}

// NewExpiryFilter 创建过滤器
func NewExpiryFilter(operator pkgif.OperatorAddressSupplier, clk clock.Clock) *ExpiryFilter {
	if clk == nil {
		clk = clock.New()
	}
	return &ExpiryFilter{operator: operator, clock: clk}
}

type chainResult struct {
	resp ilp.Response
	err  error
}

// DoFilter 实现 PacketSwitchFilter
func (f *ExpiryFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	self := f.operator.Address()
	if prepare.Expired(f.clock.Now()) {
		return ilp.NewReject(ilp.R02InsufficientTimeout, self, "Insufficient timeout: packet already expired"), nil
	}

	guard := &resolutionGuard{}
	dctx, cancel := f.clock.WithDeadline(withGuard(ctx, guard), prepare.ExpiresAt)
	defer cancel()

	done := make(chan chainResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- chainResult{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		resp, err := chain.DoFilter(dctx, source, prepare)
		done <- chainResult{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-dctx.Done():
	}

	if guard.Abandon() {
		logger.Debug("Prepare 超时", "account", source.AccountID, "destination", prepare.Destination, "cause", dctx.Err())
		return ilp.NewReject(ilp.R00TransferTimedOut, self, "Transfer timed out"), nil
	}
	// 履约已记账，必须返回真实结果
	r := <-done
	return r.resp, r.err
}
