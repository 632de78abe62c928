package interfaces

import (
	"context"

	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// AccountSettingsRepository 账户设置仓库
//
// 写入由外部开通流程完成，核心只读。
type AccountSettingsRepository interface {
	// Get 读取账户设置，不存在时返回 types.ErrAccountNotFound
	Get(ctx context.Context, id types.AccountID) (*types.AccountSettings, error)

	// Put 新增或整体替换账户设置
	Put(ctx context.Context, settings *types.AccountSettings) error

	// Delete 删除账户设置
	Delete(ctx context.Context, id types.AccountID) error

	// List 列出全部账户设置
	List(ctx context.Context) ([]*types.AccountSettings, error)
}

// AccountSettingsCache 账户设置加载缓存
//
// 同一键的并发加载合并为一次仓库读取。
type AccountSettingsCache interface {
	// Get 读取账户设置快照，调用方不得修改返回值
	Get(ctx context.Context, id types.AccountID) (*types.AccountSettings, error)

	// Invalidate 使缓存项失效
	Invalidate(id types.AccountID)
}
