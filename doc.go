// Package connector 是 ILP 连接器的入口
//
// Connector 把各核心组件（账户、余额、路由、链路、数据包交换）组装成一个
// 可启动/停止的节点，并暴露少量面向嵌入方的操作：
//
//	c, err := connector.New(connector.WithConfigFile("connector.json"))
//	if err != nil {
//	    return err
//	}
//	if err := c.Start(ctx); err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	resp := c.SwitchPacket(ctx, "alice", prepare)
//
// 组件之间的依赖由 Fx 装配，见 fx.go。传输层绑定（HTTP、BTP 等）不在本包范围内，
// 通过 WithLinkFactory 注入链路工厂，或用 RegisterLink 注册预先构造的链路。
package connector
