package link

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// baseLink 链路的公共状态：账户、连接标志、入站处理器
type baseLink struct {
	accountID types.AccountID

	mu        sync.RWMutex
	connected bool
	handler   pkgif.PacketHandler
}

func (b *baseLink) AccountID() types.AccountID {
	return b.accountID
}

func (b *baseLink) Connect(_ context.Context) error {
	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()
	return nil
}

func (b *baseLink) Disconnect(_ context.Context) error {
	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
	return nil
}

func (b *baseLink) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func (b *baseLink) RegisterPacketHandler(handler pkgif.PacketHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handler != nil {
		return ErrHandlerRegistered
	}
	b.handler = handler
	return nil
}

func (b *baseLink) UnregisterPacketHandler() {
	b.mu.Lock()
	b.handler = nil
	b.mu.Unlock()
}

func (b *baseLink) packetHandler() pkgif.PacketHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handler
}
