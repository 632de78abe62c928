package packetswitch

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// AllowedDestinationFilter 拒绝不可达的目的地址
//
// 禁用的分配方案（默认 self、example）以及下一跳回到来源账户的目的地址都以 F02 拒绝。
type AllowedDestinationFilter struct {
	operator   pkgif.OperatorAddressSupplier
	table      pkgif.RoutingTable
	disallowed map[string]struct{}
}

// NewAllowedDestinationFilter 创建过滤器
func NewAllowedDestinationFilter(operator pkgif.OperatorAddressSupplier, table pkgif.RoutingTable, disallowedSchemes []string) *AllowedDestinationFilter {
	set := make(map[string]struct{}, len(disallowedSchemes))
	for _, s := range disallowedSchemes {
		set[s] = struct{}{}
	}
	return &AllowedDestinationFilter{operator: operator, table: table, disallowed: set}
}

// DoFilter 实现 PacketSwitchFilter
func (f *AllowedDestinationFilter) DoFilter(ctx context.Context, source *types.AccountSettings, prepare *ilp.Prepare, chain pkgif.PacketSwitchFilterChain) (ilp.Response, error) {
	dest := prepare.Destination
	if _, bad := f.disallowed[dest.Scheme()]; bad {
		return f.unreachable(source, dest, "disallowed scheme"), nil
	}
	if self := f.operator.Address(); dest != self && f.table != nil {
		if route, ok := f.table.Lookup(dest); ok && route.NextHopAccountID == source.AccountID {
			return f.unreachable(source, dest, "route loops back to source"), nil
		}
	}
	return chain.DoFilter(ctx, source, prepare)
}

func (f *AllowedDestinationFilter) unreachable(source *types.AccountSettings, dest ilp.Address, reason string) *ilp.Reject {
	logger.Debug("目的地址不可达", "account", source.AccountID, "destination", dest, "reason", reason)
	return ilp.NewReject(ilp.F02Unreachable, f.operator.Address(), "Destination address is unreachable")
}
