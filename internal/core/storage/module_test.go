package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/kv"
)

// TestModule_ClosesOnStop 停止应用后引擎不可再用
func TestModule_ClosesOnStop(t *testing.T) {
	var eng engine.Engine
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Populate(&eng),
	)
	app.RequireStart()

	require.NotNil(t, eng)
	require.NoError(t, kv.New(eng, []byte("t/")).Put([]byte("k"), []byte("v")))
	v, err := eng.Get([]byte("t/k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	app.RequireStop()

	_, err = eng.Get([]byte("t/k"))
	assert.ErrorIs(t, err, engine.ErrClosed)
}

// TestEngineConfig 关闭内存模式时使用 data_dir 下的数据库路径
func TestEngineConfig(t *testing.T) {
	assert.True(t, EngineConfig(nil).InMemory)

	cfg := config.NewConfig()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.InMemory = false

	ec := EngineConfig(cfg)
	assert.False(t, ec.InMemory)
	assert.Equal(t, cfg.Storage.DBPath(), ec.Path)
	assert.Equal(t, gcInterval, ec.GCInterval)
}
