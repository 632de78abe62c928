package balance

import (
	"context"
	"errors"
	"fmt"
	"hash/maphash"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-ilp-connector/internal/core/storage/engine"
	"github.com/dep2p/go-ilp-connector/internal/core/storage/kv"
	pkgif "github.com/dep2p/go-ilp-connector/pkg/interfaces"
	"github.com/dep2p/go-ilp-connector/pkg/types"
)

// KeyPrefix 余额记录的键前缀
var KeyPrefix = []byte("b/")

// ErrCorruptRecord 余额记录无法解析
var ErrCorruptRecord = errors.New("balance: corrupt record")

// 余额记录字段号
const (
	fieldClearing protowire.Number = 1
	fieldPrepaid  protowire.Number = 2
)

// lockStripes 账户锁分片数
const lockStripes = 64

// BadgerTracker 基于 BadgerDB 的余额账本
//
// 每次记账是一个读改写事务。同一账户的事务先在进程内按账户分片加锁串行执行，
// 不依赖存储引擎的冲突重试次数，并发记账不会因冲突而丢失。
type BadgerTracker struct {
	store *kv.Store
	seed  maphash.Seed
	locks [lockStripes]sync.Mutex
}

// NewBadgerTracker 创建 BadgerDB 账本
func NewBadgerTracker(eng engine.Engine) *BadgerTracker {
	return &BadgerTracker{store: kv.New(eng, KeyPrefix), seed: maphash.MakeSeed()}
}

func (t *BadgerTracker) lockFor(id types.AccountID) *sync.Mutex {
	return &t.locks[maphash.String(t.seed, string(id))%lockStripes]
}

// encodeRecord 编码余额记录（sint64 字段，零值省略）
func encodeRecord(b types.AccountBalance) []byte {
	var buf []byte
	if b.ClearingBalance != 0 {
		buf = protowire.AppendTag(buf, fieldClearing, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(b.ClearingBalance))
	}
	if b.PrepaidAmount != 0 {
		buf = protowire.AppendTag(buf, fieldPrepaid, protowire.VarintType)
		buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(b.PrepaidAmount))
	}
	return buf
}

// decodeRecord 解码余额记录，忽略未知字段
func decodeRecord(id types.AccountID, data []byte) (types.AccountBalance, error) {
	b := types.AccountBalance{AccountID: id}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return b, fmt.Errorf("%w: %v", ErrCorruptRecord, protowire.ParseError(n))
		}
		data = data[n:]
		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return b, fmt.Errorf("%w: %v", ErrCorruptRecord, protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return b, fmt.Errorf("%w: %v", ErrCorruptRecord, protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case fieldClearing:
			b.ClearingBalance = protowire.DecodeZigZag(v)
		case fieldPrepaid:
			b.PrepaidAmount = protowire.DecodeZigZag(v)
		}
	}
	return b, nil
}

func readRecord(txn *kv.Txn, id types.AccountID) (types.AccountBalance, error) {
	data, err := txn.Get([]byte(id))
	if engine.IsNotFound(err) {
		return types.AccountBalance{AccountID: id}, nil
	}
	if err != nil {
		return types.AccountBalance{}, err
	}
	return decodeRecord(id, data)
}

func (t *BadgerTracker) update(id types.AccountID, fn func(types.AccountBalance) (types.AccountBalance, error)) (types.AccountBalance, error) {
	mu := t.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	var out types.AccountBalance
	err := t.store.Update(func(txn *kv.Txn) error {
		cur, err := readRecord(txn, id)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		out = next
		return txn.Set([]byte(id), encodeRecord(next))
	})
	return out, err
}

// Balance 查询余额
func (t *BadgerTracker) Balance(_ context.Context, id types.AccountID) (types.AccountBalance, error) {
	var out types.AccountBalance
	err := t.store.View(func(txn *kv.Txn) error {
		b, err := readRecord(txn, id)
		out = b
		return err
	})
	return out, err
}

// UpdateBalanceForIncomingFulfill 来源账户付款
func (t *BadgerTracker) UpdateBalanceForIncomingFulfill(_ context.Context, source *types.AccountSettings, amount uint64) (types.AccountBalance, error) {
	if source == nil {
		return types.AccountBalance{}, ErrNilAccount
	}
	return t.update(source.AccountID, func(b types.AccountBalance) (types.AccountBalance, error) {
		return applyIncomingFulfill(b, amount)
	})
}

// UpdateBalanceForFulfill 目标账户收款
func (t *BadgerTracker) UpdateBalanceForFulfill(_ context.Context, dest *types.AccountSettings, amount uint64) (types.BalanceUpdateResult, error) {
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
func (t *BadgerTracker) UpdateBalanceForSettlementRefund(_ context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	return t.update(id, func(b types.AccountBalance) (types.AccountBalance, error) {
		return applyRefund(b, amount)
	})
}

// UpdateBalanceForIncomingSettlement 收到对端结算
func (t *BadgerTracker) UpdateBalanceForIncomingSettlement(_ context.Context, id types.AccountID, amount uint64) (types.AccountBalance, error) {
	return t.update(id, func(b types.AccountBalance) (types.AccountBalance, error) {
		return applyIncomingSettlement(b, amount)
	})
}

var _ pkgif.BalanceTracker = (*BadgerTracker)(nil)
