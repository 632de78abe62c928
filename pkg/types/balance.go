package types

// AccountBalance 账户余额快照
//
// 正的清算余额表示本节点欠对端，负值表示对端欠本节点。
type AccountBalance struct {
	AccountID       AccountID
	ClearingBalance int64
	PrepaidAmount   int64
}

// NetBalance 净余额 = 清算余额 + 预付金额
func (b AccountBalance) NetBalance() int64 {
	return b.ClearingBalance + b.PrepaidAmount
}

// BalanceUpdateResult 履约记账结果
type BalanceUpdateResult struct {
	Balance AccountBalance

	// ClearingAmountToSettle 本次从清算余额中移出、需要结算给对端的金额
	ClearingAmountToSettle uint64
}
