// Package accounts 实现账户设置仓库与加载缓存
//
// 仓库基于 storage 的 kv.Store（前缀 a/），账户设置以 JSON 保存。
// 数据包交换只通过 LoadingCache 读取快照。
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/kv"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// KeyPrefix 账户设置的键前缀
var KeyPrefix = []byte("a/")

// Repository 基于 kv.Store 的账户设置仓库
type Repository struct {
	store *kv.Store
}

// NewRepository 创建仓库
func NewRepository(eng engine.Engine) *Repository {
	return &Repository{store: kv.New(eng, KeyPrefix)}
}

// Get 读取账户设置
func (r *Repository) Get(_ context.Context, id types.AccountID) (*types.AccountSettings, error) {
	var s types.AccountSettings
	if err := r.store.GetJSON([]byte(id), &s); err != nil {
		if engine.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", types.ErrAccountNotFound, id)
		}
		return nil, err
	}
	return &s, nil
}

// Put 新增或替换账户设置
func (r *Repository) Put(_ context.Context, s *types.AccountSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.AccountID == types.PingAccountID {
		return fmt.Errorf("%w: %s is reserved", types.ErrInvalidAccountSettings, types.PingAccountID)
	}
	return r.store.PutJSON([]byte(s.AccountID), s)
}

// Delete 删除账户设置
func (r *Repository) Delete(_ context.Context, id types.AccountID) error {
	return r.store.Delete([]byte(id))
}

// List 列出全部账户设置，按账户 ID 排序
func (r *Repository) List(_ context.Context) ([]*types.AccountSettings, error) {
	var out []*types.AccountSettings
	err := r.store.PrefixScan(nil, func(_, value []byte) error {
		var s types.AccountSettings
		if err := json.Unmarshal(value, &s); err != nil {
			return err
		}
		out = append(out, &s)
		return nil
	})
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return nil, err
	}
	return out, nil
}

var _ pkgif.AccountSettingsRepository = (*Repository)(nil)
