// Package balance 实现账户余额账本
//
// 两种实现共享同一组记账规则（ledger.go）：
//   - MemoryTracker  每账户互斥锁，进程内
//   - BadgerTracker  BadgerDB 乐观事务，冲突重试，记录以 protowire 编码
//
// 清算余额为正表示本节点欠对端，为负表示对端欠本节点。
package balance

import (
	"errors"
	"fmt"
	"math"

	"github.com/dep2p/go-ilp-connector/pkg/types"
)

var (
	// ErrAmountOverflow 金额超出 int64 记账范围
	ErrAmountOverflow = errors.New("balance: amount overflow")

	// ErrNilAccount 账户设置为空
	ErrNilAccount = errors.New("balance: nil account settings")
)

func signed(amount uint64) (int64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOverflow, amount)
	}
	return int64(amount), nil
}

func add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return a + b, nil
}

// applyIncomingFulfill 来源账户付款：先扣预付，不足部分记入清算余额
func applyIncomingFulfill(b types.AccountBalance, amount uint64) (types.AccountBalance, error) {
	v, err := signed(amount)
	if err != nil {
		return b, err
	}
	if b.PrepaidAmount >= v {
		b.PrepaidAmount -= v
		return b, nil
	}
	rest := v - b.PrepaidAmount
	b.PrepaidAmount = 0
	clearing, err := add(b.ClearingBalance, -rest)
	if err != nil {
		return b, err
	}
	b.ClearingBalance = clearing
	return b, nil
}

// applyFulfill 目标账户收款，超过结算阈值时移出 clearing - settleTo
func applyFulfill(b types.AccountBalance, dest *types.AccountSettings, amount uint64) (types.BalanceUpdateResult, error) {
	v, err := signed(amount)
	if err != nil {
		return types.BalanceUpdateResult{Balance: b}, err
	}
	clearing, err := add(b.ClearingBalance, v)
	if err != nil {
		return types.BalanceUpdateResult{Balance: b}, err
	}
	b.ClearingBalance = clearing

	var toSettle uint64
	if threshold, ok := dest.SettleThreshold(); ok && dest.AccountID != types.PingAccountID && clearing > threshold {
		settleTo := dest.Settlement.SettleTo
		toSettle = uint64(clearing - settleTo)
		b.ClearingBalance = settleTo
	}
	return types.BalanceUpdateResult{Balance: b, ClearingAmountToSettle: toSettle}, nil
}

// applyRefund 结算失败，金额加回清算余额
func applyRefund(b types.AccountBalance, amount uint64) (types.AccountBalance, error) {
	v, err := signed(amount)
	if err != nil {
		return b, err
	}
	clearing, err := add(b.ClearingBalance, v)
	if err != nil {
		return b, err
	}
	b.ClearingBalance = clearing
	return b, nil
}

// applyIncomingSettlement 对端结算：抵扣欠款，多余部分转为预付
func applyIncomingSettlement(b types.AccountBalance, amount uint64) (types.AccountBalance, error) {
	b, err := applyRefund(b, amount)
	if err != nil {
		return b, err
	}
	if b.ClearingBalance > 0 {
		prepaid, err := add(b.PrepaidAmount, b.ClearingBalance)
		if err != nil {
			return b, err
		}
		b.PrepaidAmount = prepaid
		b.ClearingBalance = 0
	}
	return b, nil
}
