// Package protocol 定义连接器使用的对等协议地址
//
// 本包是 "peer.*" 目的地址的单一真相源：
//
//   - peer.config          IL-DCP，子账户向父节点获取地址与资产
//   - peer.route.control   CCP 路由控制（IDLE / SYNC）
//   - peer.route.update    CCP 路由增量更新
//
// 具体编码见子包 ildcp 与 ccp。
package protocol
