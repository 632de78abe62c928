package accounts

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// LoadingCache 账户设置加载缓存
//
// 未命中时从仓库加载，同一账户的并发加载由 singleflight 合并。
// ping 伪账户不在仓库中，直接返回合成的设置。
type LoadingCache struct {
	repo  pkgif.AccountSettingsRepository
	cache *expirable.LRU[types.AccountID, *types.AccountSettings]
	group singleflight.Group
	ping  *types.AccountSettings
}

// NewLoadingCache 创建加载缓存
func NewLoadingCache(repo pkgif.AccountSettingsRepository, size int, ttl time.Duration, ping *types.AccountSettings) *LoadingCache {
	return &LoadingCache{
		repo:  repo,
		cache: expirable.NewLRU[types.AccountID, *types.AccountSettings](size, nil, ttl),
		ping:  ping,
	}
}

// Get 读取账户设置
func (c *LoadingCache) Get(ctx context.Context, id types.AccountID) (*types.AccountSettings, error) {
	if id == types.PingAccountID && c.ping != nil {
		return c.ping, nil
	}
	if s, ok := c.cache.Get(id); ok {
		return s, nil
	}

	v, err, _ := c.group.Do(string(id), func() (any, error) {
		s, err := c.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		c.cache.Add(id, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.AccountSettings), nil
}

// Invalidate 使缓存项失效
func (c *LoadingCache) Invalidate(id types.AccountID) {
	c.cache.Remove(id)
}

// PingAccountSettings 合成 ping 伪账户设置
func PingAccountSettings(assetCode string, assetScale uint8) *types.AccountSettings {
	return &types.AccountSettings{
		AccountID:    types.PingAccountID,
		AssetCode:    assetCode,
		AssetScale:   assetScale,
		Relationship: types.RelationshipChild,
		LinkType:     types.LinkTypePingLoopback,
		Internal:     true,
	}
}

var _ pkgif.AccountSettingsCache = (*LoadingCache)(nil)
