package mocks

import (
	"context"
	"sync"

	"github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// BalanceCall 一次余额调用
type BalanceCall struct {
	AccountID types.AccountID
	Amount    uint64
}

// MockBalanceTracker 模拟 BalanceTracker 接口实现
//
// 未注入行为时所有更新返回零余额。
type MockBalanceTracker struct {
	mu sync.Mutex

	// 可覆盖的方法
	IncomingFulfillFunc func(ctx context.Context, source *types.AccountSettings, amount uint64) (types.AccountBalance, error)
	FulfillFunc         func(ctx context.Context, destination *types.AccountSettings, amount uint64) (types.BalanceUpdateResult, error)

	// 调用记录
	IncomingFulfillCalls    []BalanceCall
	FulfillCalls            []BalanceCall
	RefundCalls             []BalanceCall
	IncomingSettlementCalls []BalanceCall
}

// Balance 返回零余额
func (m *MockBalanceTracker) Balance(_ context.Context, id types.AccountID) (types.AccountBalance, error) {
	return types.AccountBalance{AccountID: id}, nil
}

// UpdateBalanceForIncomingFulfill 记录调用
func (m *MockBalanceTracker) UpdateBalanceForIncomingFulfill(ctx context.Context, source *types.AccountSettings, amount uint64) (types.AccountBalance, error) {
	m.mu.Lock()
	m.IncomingFulfillCalls = append(m.IncomingFulfillCalls, BalanceCall{source.AccountID, amount})
	fn := m.IncomingFulfillFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, source, amount)
	}
	return types.AccountBalance{AccountID: source.AccountID}, nil
}

// UpdateBalanceForFulfill 记录调用
func (m *MockBalanceTracker) UpdateBalanceForFulfill(ctx context.Context, destination *types.AccountSettings, amount uint64) (types.BalanceUpdateResult, error) {
	m.mu.Lock()
	m.FulfillCalls = append(m.FulfillCalls, BalanceCall{destination.AccountID, amount})
	fn := m.FulfillFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, destination, amount)
	}
	return types.BalanceUpdateResult{Balance: types.AccountBalance{AccountID: destination.AccountID}}, nil
}

// UpdateBalanceForSettlementRefund 记录调用
func (m *MockBalanceTracker) UpdateBalanceForSettlementRefund(_ context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	m.mu.Lock()
	m.RefundCalls = append(m.RefundCalls, BalanceCall{id, amount})
	m.mu.Unlock()
	return types.AccountBalance{AccountID: id}, nil
}

// UpdateBalanceForIncomingSettlement 记录调用
func (m *MockBalanceTracker) UpdateBalanceForIncomingSettlement(_ context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	m.mu.Lock()
	m.IncomingSettlementCalls = append(m.IncomingSettlementCalls, BalanceCall{id, amount})
	m.mu.Unlock()
	return types.AccountBalance{AccountID: id}, nil
}

// Calls 返回调用记录副本
func (m *MockBalanceTracker) Calls() (incoming, fulfill []BalanceCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	incoming = append([]BalanceCall(nil), m.IncomingFulfillCalls...)
	fulfill = append([]BalanceCall(nil), m.FulfillCalls...)
	return incoming, fulfill
}

var _ interfaces.BalanceTracker = (*MockBalanceTracker)(nil)
