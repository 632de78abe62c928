package link

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// PipeLink 进程内管道的一端
//
// 一端发出的 Prepare 同步交给另一端注册的入站处理器，用于在同一进程内
// 连接两个连接器。两端都连接后才可收发。
type PipeLink struct {
	baseLink
	remote *PipeLink
}

// NewPipe 创建管道
//
// a 注册在一个连接器上，账户 ID 为该连接器眼中的对端；b 同理。
func NewPipe(a, b types.AccountID) (*PipeLink, *PipeLink) {
	left := &PipeLink{}
	right := &PipeLink{}
	left.accountID, right.accountID = a, b
	left.remote, right.remote = right, left
	return left, right
}

// SendPacket 交给对端处理
func (l *PipeLink) SendPacket(ctx context.Context, prepare *ilp.Prepare) (ilp.Response, error) {
	if !l.IsConnected() || !l.remote.IsConnected() {
		return ilp.NewReject(ilp.T01PeerUnreachable, "", "pipe not connected"), nil
	}
	handler := l.remote.packetHandler()
	if handler == nil {
		return ilp.NewReject(ilp.T01PeerUnreachable, "", "pipe peer has no handler"), nil
	}
	return handler(ctx, prepare)
}

var _ pkgif.Link = (*PipeLink)(nil)
