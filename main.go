package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LessonAnalytics/internal/attendance"
	"LessonAnalytics/internal/collector"
	"LessonAnalytics/internal/config"
	"LessonAnalytics/internal/httpserver"
	"LessonAnalytics/internal/logger"
	"LessonAnalytics/internal/wsfeed"
)

func main() {
	var (
		mode       = flag.String("mode", "demo", "运行模式: demo, server")
		configPath = flag.String("config", "", "配置文件路径（server模式）")
	)
	flag.Parse()

	switch *mode {
	case "demo":
		runDemo()
	case "server":
		runServer(*configPath)
	default:
		fmt.Printf("未知模式: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runDemo 运行演示模式
func runDemo() {
	fmt.Println("🎓 LessonAnalytics - 在线课程出勤分析")
	fmt.Println("=====================================")
	fmt.Println()

	fmt.Println("📋 项目特性:")
	fmt.Println("  ✅ 课程/学生/老师区间重叠计算（纯函数核心）")
	fmt.Println("  ✅ HTTP API + 批量计算")
	fmt.Println("  ✅ WebSocket实时出入场事件接入")
	fmt.Println("  ✅ 参数模式校验")
	fmt.Println("  ✅ 分类页抓取 + CSV报告")
	fmt.Println()

	fmt.Println("🧮 示例计算:")

	samples := []struct {
		name  string
		input attendance.SessionInput
	}{
		{
			name: "真实课程数据",
			input: attendance.SessionInput{
				Lesson: []int64{1594663200, 1594666800},
				Pupil:  []int64{1594663340, 1594663389, 1594663390, 1594663395, 1594663396, 1594666472},
				Tutor:  []int64{1594663290, 1594663430, 1594663443, 1594666473},
			},
		},
		{
			name: "双方在场但不重叠",
			input: attendance.SessionInput{
				Lesson: []int64{0, 100},
				Pupil:  []int64{10, 20},
				Tutor:  []int64{30, 40},
			},
		},
		{
			name: "在场区间覆盖整节课",
			input: attendance.SessionInput{
				Lesson: []int64{10, 20},
				Pupil:  []int64{0, 30},
				Tutor:  []int64{5, 25},
			},
		},
	}

	for _, sample := range samples {
		seconds := attendance.Appearance(sample.input)
		fmt.Printf("  %s: 共同在场 %d 秒\n", sample.name, seconds)
	}

	fmt.Println()
	fmt.Println("🚀 启动服务: go run . -mode server")
	fmt.Println("🕷  运行抓取: go run ./cmd/beasts-scraper")
}

// runServer 运行服务器模式
func runServer(configPath string) {
	cfg, err := config.Load(configPath)
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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	apiServer.Shutdown(ctx)
	feedServer.Shutdown(ctx)
}
