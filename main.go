package main

import (
	"camp_finance/config"
)

// main 应用程序入口
// 初始化数据库和迁移，创建Fiber应用并启动HTTP服务器
func main() {
	// 初始化数据库连接和迁移
	config.InitApp()

	// 创建并配置Fiber应用
	app := config.SetupApp()

	// 启动服务器并处理优雅关闭
	config.StartServer(app)
}
