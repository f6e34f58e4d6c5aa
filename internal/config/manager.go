package config

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Manager 配置管理器，支持配置文件热加载
type Manager struct {
	mu           sync.RWMutex
	config       *Config
	viper        *viper.Viper
	configPath   string
	watchEnabled bool
	onReload     []func(*Config)
}

// ManagerOption 配置管理器选项
type ManagerOption func(*Manager)

// WithConfigPath 设置配置文件路径
func WithConfigPath(path string) ManagerOption {
	return func(m *Manager) {
		m.configPath = path
	}
}

// WithWatchEnabled 启用配置文件监控
func WithWatchEnabled(enabled bool) ManagerOption {
	return func(m *Manager) {
		m.watchEnabled = enabled
	}
}

// NewManager 创建配置管理器
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load 加载配置（重复调用返回已缓存的配置）
func (m *Manager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config != nil {
		return m.config, nil
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LESSON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if m.configPath != "" {
		v.SetConfigFile(m.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m.config = &cfg
	m.viper = v

	if m.watchEnabled && m.configPath != "" {
		m.watch()
	}
	return m.config, nil
}

// Get 获取当前配置（未加载则自动加载）
func (m *Manager) Get() (*Config, error) {
	m.mu.RLock()
	if m.config != nil {
		defer m.mu.RUnlock()
		return m.config, nil
	}
	m.mu.RUnlock()

	return m.Load()
}

// OnReload 注册配置重载回调
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	m.onReload = append(m.onReload, fn)
	m.mu.Unlock()
}

// watch 监控配置文件变化并热加载。新配置校验失败时保留旧配置。
func (m *Manager) watch() {
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("配置文件变更: %s", e.Name)

		var cfg Config
		if err := m.viper.Unmarshal(&cfg); err != nil {
			log.Printf("重载配置失败，保留旧配置: %v", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			log.Printf("新配置校验失败，保留旧配置: %v", err)
			return
		}

		m.mu.Lock()
		m.config = &cfg
		callbacks := make([]func(*Config), len(m.onReload))
		copy(callbacks, m.onReload)
		m.mu.Unlock()

		for _, fn := range callbacks {
			fn(&cfg)
		}
	})
	m.viper.WatchConfig()
}
