package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LessonAnalytics/internal/collector"
	"LessonAnalytics/internal/config"
	"LessonAnalytics/internal/httpserver"
	"LessonAnalytics/internal/logger"
	"LessonAnalytics/internal/wsfeed"
)

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径（留空使用默认配置）")
		watch      = flag.Bool("watch", false, "监控配置文件变更")
	)
	flag.Parse()

	manager := config.NewManager(
		config.WithConfigPath(*configPath),
		config.WithWatchEnabled(*watch),
	)
	cfg, err := manager.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger.Init(cfg.Logging)

	coll := collector.New()
	apiServer := httpserver.New(cfg.Server, coll)
	feedServer := wsfeed.New(cfg.WebSocket, coll)

	if err := feedServer.Start(); err != nil {
		log.Fatalf("启动事件接入服务器失败: %v", err)
	}

	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("HTTP API server stopped: %v", err)
		}
	}()

	// 等待退出信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("收到信号 %v，开始优雅关闭...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("关闭HTTP服务器失败: %v", err)
	}
	if err := feedServer.Shutdown(ctx); err != nil {
		log.Printf("关闭事件接入服务器失败: %v", err)
	}

	log.Printf("服务已退出")
}
