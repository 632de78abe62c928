package accounts

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/storage"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine/badger"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	eng, err := badger.New(engine.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return NewRepository(eng)
}

func peer(id types.AccountID) *types.AccountSettings {
	return &types.AccountSettings{
		AccountID:    id,
		AssetCode:    "XRP",
		AssetScale:   9,
		Relationship: types.RelationshipPeer,
		LinkType:     types.LinkTypePipe,
	}
}

// TestRepository_CRUD 增删查
func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Get(ctx, "bob")
	assert.ErrorIs(t, err, types.ErrAccountNotFound)

	require.NoError(t, repo.Put(ctx, peer("bob")))
	require.NoError(t, repo.Put(ctx, peer("alice")))

	got, err := repo.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, peer("bob"), got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, types.AccountID("alice"), all[0].AccountID)

	require.NoError(t, repo.Delete(ctx, "bob"))
	_, err = repo.Get(ctx, "bob")
	assert.ErrorIs(t, err, types.ErrAccountNotFound)
}

// TestRepository_RejectsInvalid 非法设置与保留账户
func TestRepository_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	bad := peer("bob")
	bad.AssetCode = ""
	assert.ErrorIs(t, repo.Put(ctx, bad), types.ErrInvalidAccountSettings)

	assert.ErrorIs(t, repo.Put(ctx, peer(types.PingAccountID)), types.ErrInvalidAccountSettings)
}

// countingRepo 统计仓库读取次数
type countingRepo struct {
	pkgif.AccountSettingsRepository
	gets  atomic.Int32
	delay time.Duration
}

func (r *countingRepo) Get(ctx context.Context, id types.AccountID) (*types.AccountSettings, error) {
	r.gets.Add(1)
	time.Sleep(r.delay)
	return r.AccountSettingsRepository.Get(ctx, id)
}

// TestLoadingCache_SingleFlight 并发未命中只读一次仓库
func TestLoadingCache_SingleFlight(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{AccountSettingsRepository: newRepo(t), delay: 50 * time.Millisecond}
	require.NoError(t, repo.Put(ctx, peer("bob")))

	cache := NewLoadingCache(repo, 16, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := cache.Get(ctx, "bob")
			assert.NoError(t, err)
			assert.Equal(t, types.AccountID("bob"), s.AccountID)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), repo.gets.Load())

	// 命中缓存
	_, err := cache.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.gets.Load())

	cache.Invalidate("bob")
	_, err = cache.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.gets.Load())
}

// TestLoadingCache_PingAccount ping 伪账户不查仓库
func TestLoadingCache_PingAccount(t *testing.T) {
	repo := &countingRepo{AccountSettingsRepository: newRepo(t)}
	cache := NewLoadingCache(repo, 16, time.Minute, PingAccountSettings("USD", 2))

	s, err := cache.Get(context.Background(), types.PingAccountID)
	require.NoError(t, err)
	assert.True(t, s.Internal)
	assert.Equal(t, "USD", s.AssetCode)
	assert.Equal(t, types.LinkTypePingLoopback, s.LinkType)
	assert.Equal(t, int32(0), repo.gets.Load())

	_, err = cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, types.ErrAccountNotFound)
}

// TestModule_SeedsAccounts 启动时写入配置中的账户
func TestModule_SeedsAccounts(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Accounts = []types.AccountSettings{*peer("bob")}

	var cache pkgif.AccountSettingsCache
	app := fxtest.New(t,
		fx.Supply(cfg),
		storage.Module(),
		Module(),
		fx.Populate(&cache),
	)
	app.RequireStart()
	defer app.RequireStop()

	s, err := cache.Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, types.RelationshipPeer, s.Relationship)
}
