package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"LessonAnalytics/internal/config"
	"LessonAnalytics/internal/logger"
	"LessonAnalytics/internal/scraper"
)

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径（留空使用默认配置）")
		startURL   = flag.String("start-url", "", "起始页URL（覆盖配置）")
		output     = flag.String("output", "", "CSV输出路径（覆盖配置）")
		maxPages   = flag.Int("max-pages", 0, "最大抓取页数（覆盖配置）")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if *startURL != "" {
		cfg.Scraper.StartURL = *startURL
	}
	if *output != "" {
		cfg.Scraper.OutputPath = *output
	}
	if *maxPages > 0 {
		cfg.Scraper.MaxPages = *maxPages
	}

	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scraper.New(cfg.Scraper).Run(ctx); err != nil {
		log.Printf("抓取失败: %v", err)
		os.Exit(1)
	}
}
