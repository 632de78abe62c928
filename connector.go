package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-ilp-connector/config"
	"github.com/dep2p/go-ilp-connector/internal/core/metrics"
	"github.com/dep2p/go-ilp-connector/internal/core/operator"
	"github.com/dep2p/go-ilp-connector/internal/core/routing"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/pkg/ilp"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var logger = log.Logger("connector")

const (
	// startTimeout Fx App Start 超时
	startTimeout = 30 * time.Second

	// stopTimeout Fx App Stop 超时
	stopTimeout = 15 * time.Second
)

// Connector ILP 连接器节点
type Connector struct {
	cfg *config.Config
	app *fx.App

	mu      sync.Mutex
	started bool
	closed  bool

	engine      engine.Engine
	holder      *operator.Holder
	switcher    pkgif.PacketSwitch
	links       pkgif.LinkManager
	repo        pkgif.AccountSettingsRepository
	cache       pkgif.AccountSettingsCache
	tracker     pkgif.BalanceTracker
	table       pkgif.RoutingTable
	broadcaster *routing.Broadcaster
	settlement  pkgif.SettlementService
	metrics     *metrics.PacketMetrics
}

// New 创建连接器，组件在 Start 时启动
func New(opts ...Option) (*Connector, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	cfg, err := o.toConfig()
	if err != nil {
		return nil, err
	}

	c := &Connector{cfg: cfg}
	c.app = buildFxApp(cfg, o, c)
	if err := c.app.Err(); err != nil {
		logger.Error("组件装配失败", "error", err)
		return nil, fmt.Errorf("build connector: %w", err)
	}
	return c, nil
}

// Start 启动全部组件
//
// 未配置地址时会先通过 IL-DCP 从父节点获取地址，随后才启动路由广播。
func (c *Connector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := c.app.Start(startCtx); err != nil {
		logger.Error("连接器启动失败", "error", err)
		return fmt.Errorf("start connector: %w", err)
	}
	c.started = true

	logger.Info("连接器已启动", "address", c.holder.Address(), "version", Version)
	return nil
}

// Stop 停止全部组件并关闭连接器，之后不能再次 Start
func (c *Connector) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if !c.started {
		// 未启动时 Fx 不会运行 OnStop，链路与存储引擎需要单独关闭
		return multierr.Append(c.links.Close(), c.engine.Close())
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	err := c.app.Stop(stopCtx)
	c.started = false
	if err != nil {
		logger.Warn("连接器停止时出错", "error", err)
		return fmt.Errorf("stop connector: %w", err)
	}
	logger.Info("连接器已停止")
	return nil
}

// Close 等价于 Stop(context.Background())，重复调用为空操作
func (c *Connector) Close() error {
	return c.Stop(context.Background())
}

func (c *Connector) running() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return ErrClosed
	case !c.started:
		return ErrNotStarted
	}
	return nil
}

// ============================================================================
//                              数据包
// ============================================================================

// SwitchPacket 处理来源账户上的 Prepare，总是返回 Fulfill 或 Reject
//
// 连接器未运行时返回 T00 Reject。
func (c *Connector) SwitchPacket(ctx context.Context, source types.AccountID, prepare *ilp.Prepare) ilp.Response {
	if err := c.running(); err != nil {
		return ilp.NewReject(ilp.T00InternalError, c.holder.Address(), "Internal Error")
	}
	return c.switcher.SwitchPacket(ctx, source, prepare)
}

// ============================================================================
//                              账户
// ============================================================================

// AddAccount 新增或替换账户设置
//
// 运行中添加的子账户立即获得本地路由，开启路由收发的账户立即建立 CCP 对端。
func (c *Connector) AddAccount(ctx context.Context, settings *types.AccountSettings) error {
	if settings == nil {
		return ErrNilAccount
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	s := settings.Clone()
	if err := c.repo.Put(ctx, s); err != nil {
		return fmt.Errorf("put account %s: %w", s.AccountID, err)
	}
	c.cache.Invalidate(s.AccountID)

	if c.running() == nil {
		c.broadcaster.RegisterAccount(s)
	}
	logger.Debug("已添加账户", "account", s.AccountID, "relationship", s.Relationship)
	return nil
}

// RemoveAccount 删除账户并断开其链路
func (c *Connector) RemoveAccount(ctx context.Context, id types.AccountID) error {
	var errs error
	errs = multierr.Append(errs, c.repo.Delete(ctx, id))
	c.cache.Invalidate(id)
	if c.running() == nil {
		c.broadcaster.UnregisterAccount(id)
	}
	if _, ok := c.links.Link(id); ok {
		errs = multierr.Append(errs, c.links.RemoveLink(ctx, id))
	}
	return errs
}

// Account 读取账户设置
func (c *Connector) Account(ctx context.Context, id types.AccountID) (*types.AccountSettings, error) {
	return c.cache.Get(ctx, id)
}

// Accounts 列出全部账户设置
func (c *Connector) Accounts(ctx context.Context) ([]*types.AccountSettings, error) {
	return c.repo.List(ctx)
}

// ============================================================================
//                              余额与结算
// ============================================================================

// Balance 查询账户余额
func (c *Connector) Balance(ctx context.Context, id types.AccountID) (types.AccountBalance, error) {
	return c.tracker.Balance(ctx, id)
}

// HandleIncomingSettlement 记录对端发来的结算
func (c *Connector) HandleIncomingSettlement(ctx context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	if _, err := c.cache.Get(ctx, id); err != nil {
		return types.AccountBalance{}, err
	}
	b, err := c.tracker.UpdateBalanceForIncomingSettlement(ctx, id, amount)
	if err != nil {
		logger.Error("记录入站结算失败", "account", id, "amount", amount, "error", err)
		return types.AccountBalance{}, err
	}
	logger.Info("已记录入站结算", "account", id, "amount", amount, "clearing", b.ClearingBalance, "prepaid", b.PrepaidAmount)
	return b, nil
}

// InitiateSettlement 主动向对端结算
func (c *Connector) InitiateSettlement(ctx context.Context, idempotencyKey string, id types.AccountID, amount uint64) (uint64, error) {
	settings, err := c.cache.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.settlement.InitiateLocalSettlement(ctx, idempotencyKey, settings, amount)
}

// ============================================================================
//                              链路与路由
// ============================================================================

// RegisterLink 注册预先构造的链路（例如进程内管道）
func (c *Connector) RegisterLink(ctx context.Context, l pkgif.Link) error {
	return c.links.RegisterLink(ctx, l)
}

// ============================================================================
//                              访问器
// ============================================================================

// Address 本节点 ILP 地址，IL-DCP 获取前为零值
func (c *Connector) Address() ilp.Address {
	return c.holder.Address()
}

// Config 生效的配置
func (c *Connector) Config() *config.Config {
	return c.cfg
}

// Links 链路管理器
func (c *Connector) Links() pkgif.LinkManager {
	return c.links
}

// RoutingTable 本地路由表
func (c *Connector) RoutingTable() pkgif.RoutingTable {
	return c.table
}

// Metrics 数据包计数器，未启用时为 nil
func (c *Connector) Metrics() *metrics.PacketMetrics {
	return c.metrics
}
