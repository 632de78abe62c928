package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// MockAccountRepository 内存账户仓库
//
// 同时实现 AccountSettingsRepository 与 AccountSettingsCache。
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[types.AccountID]*types.AccountSettings

	// 可覆盖的方法
	GetFunc func(ctx context.Context, id types.AccountID) (*types.AccountSettings, error)

	// 调用记录
	GetCalls        []types.AccountID
	InvalidateCalls []types.AccountID
}

// NewMockAccountRepository 创建包含给定账户的仓库
func NewMockAccountRepository(accounts ...*types.AccountSettings) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[types.AccountID]*types.AccountSettings)}
	for _, a := range accounts {
		m.accounts[a.AccountID] = a
	}
	return m
}

// Get 读取账户
func (m *MockAccountRepository) Get(ctx context.Context, id types.AccountID) (*types.AccountSettings, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, id)
	fn := m.GetFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.accounts[id]; ok {
		return s, nil
	}
	return nil, types.ErrAccountNotFound
}

// Put 写入账户
func (m *MockAccountRepository) Put(_ context.Context, settings *types.AccountSettings) error {
	m.mu.Lock()
	m.accounts[settings.AccountID] = settings
	m.mu.Unlock()
	return nil
}

// Delete 删除账户
func (m *MockAccountRepository) Delete(_ context.Context, id types.AccountID) error {
	m.mu.Lock()
	delete(m.accounts, id)
	m.mu.Unlock()
	return nil
}

// List 按账户 ID 排序列出
func (m *MockAccountRepository) List(context.Context) ([]*types.AccountSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.AccountSettings, 0, len(m.accounts))
	for _, s := range m.accounts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// Invalidate 记录失效调用
func (m *MockAccountRepository) Invalidate(id types.AccountID) {
	m.mu.Lock()
	m.InvalidateCalls = append(m.InvalidateCalls, id)
	m.mu.Unlock()
}

var (
	_ interfaces.AccountSettingsRepository = (*MockAccountRepository)(nil)
	_ interfaces.AccountSettingsCache      = (*MockAccountRepository)(nil)
)
