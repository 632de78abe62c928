// Package ilp 定义 Interledger 协议 v4 的值对象与线上编码
//
// 包含：
//   - Address / AddressPrefix：构造期校验的 ILP 地址
//   - Condition / Fulfillment：32 字节哈希锁，SHA-256(fulfillment) == condition
//   - Prepare / Fulfill / Reject：ILPv4 数据包；Fulfill 与 Reject 实现 Response
//   - ErrorCode：RFC 定义的 F/T/R 错误码
//   - Encode / Decode：OER 编码（类型 12/13/14）
//
// 所有数据包均按值语义使用：修改通过 WithXxx 返回副本，调用方不得原地修改。
package ilp
