package ildcp

import (
	"context"
	"fmt"
	"time"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/protocol/ildcp"
)

// Fetch 通过链路向父节点请求地址
func Fetch(ctx context.Context, link pkgif.Link, now time.Time) (*ildcp.Response, error) {
	prepare := ildcp.NewRequest(now)
	ctx, cancel := context.WithDeadline(ctx, prepare.ExpiresAt)
	defer cancel()

	resp, err := link.SendPacket(ctx, prepare)
	if err != nil {
		return nil, fmt.Errorf("ildcp: send request: %w", err)
	}
	if rj, ok := ilp.AsRejectResponse(resp); ok {
		return nil, fmt.Errorf("%w: %s %s", ErrRejected, rj.Code, rj.Message)
	}
	fulfill, _ := ilp.AsFulfill(resp)
	return ildcp.DecodeResponse(fulfill.Data)
}
