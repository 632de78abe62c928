// Package settlement 实现本地结算
//
// Service 以幂等键去重后调用结算引擎驱动，并把结果写入结算日志（kv 前缀 s/）；
// Trigger 在出站履约跨过结算阈值后异步发起结算，失败时把金额退回清算余额。
package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/kv"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var logger = log.Logger("core/settlement")

// KeyPrefix 结算日志的键前缀
var KeyPrefix = []byte("s/")

// Record 结算日志记录
type Record struct {
	IdempotencyKey string          `json:"idempotency_key"`
	AccountID      types.AccountID `json:"account_id"`
	Requested      uint64          `json:"requested"`
	Settled        uint64          `json:"settled"`
	Time           time.Time       `json:"time"`
}

// Service 本地结算服务
type Service struct {
	driver  Driver
	journal *kv.Store
	emitOK  pkgif.Emitter
	emitErr pkgif.Emitter
}

// NewService 创建结算服务
func NewService(driver Driver, eng engine.Engine, bus pkgif.EventBus) (*Service, error) {
	okEm, err := bus.Emitter(new(types.EvtSettlementInitiated))
	if err != nil {
		return nil, err
	}
	errEm, err := bus.Emitter(new(types.EvtSettlementFailed))
	if err != nil {
		return nil, err
	}
	return &Service{
		driver:  driver,
		journal: kv.New(eng, KeyPrefix),
		emitOK:  okEm,
		emitErr: errEm,
	}, nil
}

// InitiateLocalSettlement 发起结算，相同幂等键只结算一次
func (s *Service) InitiateLocalSettlement(ctx context.Context, key string, account *types.AccountSettings, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	if account.Settlement == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoSettlementEngine, account.AccountID)
	}

	var prev Record
	if err := s.journal.GetJSON([]byte(key), &prev); err == nil {
		logger.Debug("重复的结算请求", "idempotencyKey", key, "account", account.AccountID)
		return prev.Settled, nil
	} else if !engine.IsNotFound(err) {
		return 0, err
	}

	settled, err := s.driver.SendSettlement(ctx, Request{
		IdempotencyKey:  key,
		AccountID:       account.AccountID,
		EngineAccountID: account.Settlement.SettlementEngineAccountID,
		BaseURL:         account.Settlement.BaseURL,
		Amount:          amount,
	})
	if err != nil {
		_ = s.emitErr.Emit(types.EvtSettlementFailed{
			AccountID: account.AccountID, IdempotencyKey: key, Amount: amount, Err: err, Time: time.Now(),
		})
		return 0, err
	}

	rec := Record{IdempotencyKey: key, AccountID: account.AccountID, Requested: amount, Settled: settled, Time: time.Now()}
	if err := s.journal.PutJSON([]byte(key), rec); err != nil {
		// 结算已经发出，日志写入失败只影响去重
		logger.Warn("写入结算日志失败", "idempotencyKey", key, "error", err)
	}
	_ = s.emitOK.Emit(types.EvtSettlementInitiated{
		AccountID: account.AccountID, IdempotencyKey: key, Amount: settled, Time: rec.Time,
	})
	return settled, nil
}

var _ pkgif.SettlementService = (*Service)(nil)
