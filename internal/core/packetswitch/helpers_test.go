package packetswitch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-ilp-connector/internal/core/operator"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var (
	self        = operator.NewHolder("test.alice")
	fulfillment = ilp.Fulfillment{7, 7, 7}
)

// chainFunc 测试用过滤链
type chainFunc func(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error)

func (f chainFunc) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare) (ilp.Response, error) {
	return f(ctx, source, prepare)
}

// fulfilling 返回正确原像的下游
func fulfilling(calls *int) pkgif.PacketSwitchFilterChain {
	return chainFunc(func(context.Context, *types.AccountSettings, *ilp.Prepare) (ilp.Response, error) {
		if calls != nil {
			*calls++
		}
		return &ilp.Fulfill{Fulfillment: fulfillment}, nil
	})
}

func account(id types.AccountID) *types.AccountSettings {
	return &types.AccountSettings{
		AccountID:    id,
		AssetCode:    "USD",
		AssetScale:   2,
		Relationship: types.RelationshipPeer,
		LinkType:     types.LinkTypeLoopback,
	}
}

func prepareTo(dest string, amount uint64) *ilp.Prepare {
	return &ilp.Prepare{
		Destination:        ilp.MustParseAddress(dest),
		Amount:             amount,
		ExecutionCondition: fulfillment.Condition(),
		ExpiresAt:          time.Now().Add(30 * time.Second),
	}
}

func requireReject(t *testing.T, resp ilp.Response) *ilp.Reject {
	t.Helper()
	rj, ok := ilp.AsRejectResponse(resp)
	require.True(t, ok, "expected reject, got %T", resp)
	return rj
}
