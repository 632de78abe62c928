// Package types 定义连接器公共类型
//
// 包括账户设置、余额、路由条目与连接器事件。
// 所有类型均为值对象：账户设置在创建后不可变，更新时整体替换。
package types
