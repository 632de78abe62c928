// Package main 提供 ilp-connector 命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	connector "github.com/dep2p/go-ilp-connector"
	"github.com/dep2p/go-ilp-connector/pkg/lib/log"
)

var logger = log.Logger("cmd/ilp-connector")

// 命令行参数只做运行时覆盖，持久化配置放在 JSON 配置文件中
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	logLevel    = flag.String("log-level", "info", "日志级别 (debug/info/warn/error)")
	logFormat   = flag.String("log-format", "text", "日志格式 (text/json)")
	dataDir     = flag.String("data-dir", "", "数据目录，设置后使用落盘存储")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(connector.VersionInfo())
		return nil
	}

	log.Setup(os.Stderr, log.ParseLevel(*logLevel), *logFormat)

	c, err := connector.New(buildOptions()...)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("启动连接器", "version", connector.Version, "commit", connector.GitCommit, "buildDate", connector.BuildDate)
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("关闭连接器时出错", "error", err)
		}
	}()

	srv := serveMetrics(c)

	fmt.Printf("连接器已启动: %s，按 Ctrl+C 退出\n", c.Address())
	waitForSignal()
	fmt.Println("\n正在关闭连接器...")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("关闭指标服务失败", "error", err)
		}
	}
	return nil
}

// buildOptions 构建选项
//
// 配置优先级：命令行参数 > 配置文件 > 默认值。
func buildOptions() []connector.Option {
	var opts []connector.Option
	if *configFile != "" {
		opts = append(opts, connector.WithConfigFile(*configFile))
	}
	if *dataDir != "" {
		opts = append(opts, connector.WithDataDir(*dataDir))
	}
	return opts
}

// serveMetrics 在配置的地址上暴露 /metrics，未启用时返回 nil
func serveMetrics(c *connector.Connector) *http.Server {
	addr := c.Config().Metrics.ListenAddr
	m := c.Metrics()
	if addr == "" || m == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常退出", "addr", addr, "error", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", addr)
	return srv
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}
