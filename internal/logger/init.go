package logger

import (
	"log"

	"LessonAnalytics/internal/config"
)

// Init 初始化日志器
func Init(cfg config.LoggingConfig) {
	flags := log.LstdFlags
	if cfg.ShortFile {
		flags |= log.Lshortfile
	}
	log.SetFlags(flags)
	if cfg.Prefix != "" {
		log.SetPrefix(cfg.Prefix + " ")
	}
	log.Printf("Logger initialized")
}
