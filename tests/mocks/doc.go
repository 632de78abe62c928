// Package mocks 提供统一的测试 Mock 实现
//
// # 链路 Mock
//
//   - MockLink: 模拟 interfaces.Link，记录发出的 Prepare
//   - MockLinkManager: 模拟 interfaces.LinkManager，按账户懒创建 MockLink
//
// # 账户与余额 Mock
//
//   - MockAccountRepository: 内存账户仓库，同时实现 AccountSettingsCache
//   - MockBalanceTracker: 模拟 interfaces.BalanceTracker，记录各类余额调用
//
// # 设计原则
//
// 1. 函数式注入: 每个 Mock 都支持通过 XxxFunc 字段注入自定义行为
// 2. 调用记录: 关键 Mock 记录调用历史，便于验证测试行为
//
// # 使用示例
//
//	links := mocks.NewMockLinkManager()
//	links.GetOrCreateLinkFunc = func(ctx context.Context, s *types.AccountSettings) (interfaces.Link, error) {
//	    return nil, errors.New("unreachable")
//	}
package mocks
