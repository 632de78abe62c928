// Package interfaces 定义连接器各组件之间的契约
//
// 实现位于 internal/core/<concern>，通过 fx 模块注入。
// 每个文件对应一个关注点：
//   - link.go          链路、链路工厂与链路管理器
//   - account.go       账户设置仓库与加载缓存
//   - balance.go       余额追踪器
//   - settlement.go    结算服务
//   - rates.go         汇率
//   - routing.go       路由表与下一跳
//   - packetswitch.go  数据包交换过滤器与链路过滤器
//   - eventbus.go      事件总线
package interfaces
