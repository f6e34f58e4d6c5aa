package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig HTTP API服务器配置
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxBatchSize   int           `yaml:"max_batch_size" mapstructure:"max_batch_size"`
}

// WebSocketConfig 实时事件接入配置
type WebSocketConfig struct {
	Addr              string `yaml:"addr" mapstructure:"addr"`
	Path              string `yaml:"path" mapstructure:"path"`
	ReadBufferSize    int    `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize   int    `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	EnableCompression bool   `yaml:"enable_compression" mapstructure:"enable_compression"`
	MaxConnections    int    `yaml:"max_connections" mapstructure:"max_connections"`
}

// ScraperConfig 分类页抓取配置
type ScraperConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	StartURL       string        `yaml:"start_url" mapstructure:"start_url"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	PoliteDelay    time.Duration `yaml:"polite_delay" mapstructure:"polite_delay"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	MaxPages       int           `yaml:"max_pages" mapstructure:"max_pages"`
	OutputPath     string        `yaml:"output_path" mapstructure:"output_path"`
	Alphabet       string        `yaml:"alphabet" mapstructure:"alphabet"`
	NextPageLabels []string      `yaml:"next_page_labels" mapstructure:"next_page_labels"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	ShortFile bool   `yaml:"short_file" mapstructure:"short_file"`
}

// Config 服务总配置
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
	Scraper   ScraperConfig   `yaml:"scraper" mapstructure:"scraper"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

const russianAlphabet = "АБВГДЕЁЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ"

// setDefaults 写入默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_batch_size", 100)

	v.SetDefault("websocket.addr", ":8081")
	v.SetDefault("websocket.path", "/ws/lessons")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.enable_compression", true)
	v.SetDefault("websocket.max_connections", 1000)

	v.SetDefault("scraper.base_url", "https://ru.wikipedia.org")
	v.SetDefault("scraper.start_url", "https://ru.wikipedia.org/wiki/Категория:Животные_по_алфавиту")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 1.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.request_timeout", 15*time.Second)
	v.SetDefault("scraper.polite_delay", 200*time.Millisecond)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.max_pages", 250)
	v.SetDefault("scraper.output_path", "beasts.csv")
	v.SetDefault("scraper.alphabet", russianAlphabet)
	v.SetDefault("scraper.next_page_labels", []string{"Следующая страница", "next page"})

	v.SetDefault("logging.prefix", "")
	v.SetDefault("logging.short_file", true)
}

// Load 加载配置文件。path 为空时仅使用默认值和环境变量。
// 环境变量前缀为 LESSON，层级用下划线分隔，如 LESSON_SERVER_ADDR。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LESSON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("配置文件不存在: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置的合法性
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr 不能为空")
	}
	if c.Server.MaxBatchSize <= 0 {
		return fmt.Errorf("server.max_batch_size 必须为正数: %d", c.Server.MaxBatchSize)
	}
	if c.WebSocket.MaxConnections <= 0 {
		return fmt.Errorf("websocket.max_connections 必须为正数: %d", c.WebSocket.MaxConnections)
	}
	if !strings.HasPrefix(c.WebSocket.Path, "/") {
		return fmt.Errorf("websocket.path 必须以 / 开头: %s", c.WebSocket.Path)
	}
	if c.Scraper.MaxPages <= 0 {
		return fmt.Errorf("scraper.max_pages 必须为正数: %d", c.Scraper.MaxPages)
	}
	if c.Scraper.Alphabet == "" {
		return fmt.Errorf("scraper.alphabet 不能为空")
	}
	return nil
}
