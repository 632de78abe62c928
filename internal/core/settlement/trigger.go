package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// DefaultTimeout 单次结算的超时
const DefaultTimeout = 30 * time.Second

// Trigger 异步结算触发器
//
// 结算与支付结果解耦：Settle 立即返回，结算失败只退回清算余额并记录日志。
type Trigger struct {
	service pkgif.SettlementService
	tracker pkgif.BalanceTracker
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTrigger 创建触发器
func NewTrigger(service pkgif.SettlementService, tracker pkgif.BalanceTracker) *Trigger {
	return &Trigger{service: service, tracker: tracker, timeout: DefaultTimeout}
}

// Settle 在后台为账户发起结算，返回幂等键
func (t *Trigger) Settle(account *types.AccountSettings, amount uint64) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return "", ErrClosed
	}

	key := uuid.NewString()
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.settle(key, account, amount)
	}()
	return key, nil
}

func (t *Trigger) settle(key string, account *types.AccountSettings, amount uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	settled, err := t.service.InitiateLocalSettlement(ctx, key, account, amount)
	if err == nil {
		logger.Info("结算已发起", "account", account.AccountID, "amount", settled, "idempotencyKey", key)
		if settled < amount {
			t.refund(ctx, account.AccountID, amount-settled)
		}
		return
	}
	logger.Error("结算失败，退回清算余额", "account", account.AccountID, "amount", amount, "error", err)
	t.refund(ctx, account.AccountID, amount)
}

func (t *Trigger) refund(ctx context.Context, id types.AccountID, amount uint64) {
	if _, err := t.tracker.UpdateBalanceForSettlementRefund(ctx, id, amount); err != nil {
		logger.Error("退回清算余额失败", "account", id, "amount", amount, "error", err)
	}
}

// Close 停止接收新的结算，等待进行中的结算完成
func (t *Trigger) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.wg.Wait()
	return nil
}
