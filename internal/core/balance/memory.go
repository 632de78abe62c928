package balance

import (
	"context"
	"sync"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// MemoryTracker 进程内余额账本
type MemoryTracker struct {
	mu       sync.Mutex
	accounts map[types.AccountID]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	balance types.AccountBalance
}

// NewMemoryTracker 创建内存账本
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{accounts: make(map[types.AccountID]*memoryEntry)}
}

func (t *MemoryTracker) entry(id types.AccountID) *memoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.accounts[id]
	if !ok {
		e = &memoryEntry{balance: types.AccountBalance{AccountID: id}}
		t.accounts[id] = e
	}
	return e
}

// update 在账户锁内执行记账，失败时余额不变
func (t *MemoryTracker) update(id types.AccountID, fn func(types.AccountBalance) (types.AccountBalance, error)) (types.AccountBalance, error) {
	e := t.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := fn(e.balance)
	if err != nil {
		return e.balance, err
	}
	e.balance = next
	return next, nil
}

// Balance 查询余额
func (t *MemoryTracker) Balance(_ context.Context, id types.AccountID) (types.AccountBalance, error) {
	e := t.entry(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance, nil
}

// UpdateBalanceForIncomingFulfill 来源账户付款
func (t *MemoryTracker) UpdateBalanceForIncomingFulfill(_ context.Context, source *types.AccountSettings, amount uint64) (types.AccountBalance, error) {
	if source == nil {
		return types.AccountBalance{}, ErrNilAccount
	}
	return t.update(source.AccountID, func(b types.AccountBalance) (types.AccountBalance, error) {
		return applyIncomingFulfill(b, amount)
	})
}

// UpdateBalanceForFulfill 目标账户收款
func (t *MemoryTracker) UpdateBalanceForFulfill(_ context.Context, dest *types.AccountSettings, amount uint64) (types.BalanceUpdateResult, error) {
	if dest == nil {
		return types.BalanceUpdateResult{}, ErrNilAccount
	}
	var result types.BalanceUpdateResult
	_, err := t.update(dest.AccountID, func(b types.AccountBalance) (types.AccountBalance, error) {
		r, err := applyFulfill(b, dest, amount)
		result = r
		return r.Balance, err
	})
	return result, err
}

// UpdateBalanceForSettlementRefund 结算失败退回
func (t *MemoryTracker) UpdateBalanceForSettlementRefund(_ context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	return t.update(id, func(b types.AccountBalance) (types.AccountBalance, error) {
		return applyRefund(b, amount)
	})
}

// UpdateBalanceForIncomingSettlement 收到对端结算
func (t *MemoryTracker) UpdateBalanceForIncomingSettlement(_ context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	return t.update(id, func(b types.AccountBalance) (types.AccountBalance, error) {
		return applyIncomingSettlement(b, amount)
	})
}

var _ pkgif.BalanceTracker = (*MemoryTracker)(nil)
