// Package config 提供配置管理
//
// 配置优先级：环境变量 > 配置文件 > 内置默认值。
// 环境变量以 ZHIBAN_ 为前缀，双下划线表示层级，
// 如 ZHIBAN_DATABASE__HOST 对应 database.host。
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/zhiban/zhiban/pkg/logger"
)

// envPrefix 环境变量前缀
const envPrefix = "ZHIBAN_"

// Config 应用配置
type Config struct {
	App      AppConfig      `koanf:"app"`
	Database DatabaseConfig `koanf:"database"`
	Engine   EngineConfig   `koanf:"engine"`
	Roster   RosterConfig   `koanf:"roster"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name      string `koanf:"name"`
	Env       string `koanf:"env"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"` // json/console
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Name            string        `koanf:"name"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// EngineConfig 班次求解引擎配置
type EngineConfig struct {
	// Version 出勤语义版本（1/2）
	Version int `koanf:"version"`
	// StrictOrganic 保持团队建制
	StrictOrganic bool `koanf:"strict_organic"`
	// Timeout 单次求解超时
	Timeout time.Duration `koanf:"timeout"`
}

// RosterConfig 轮换排班配置
type RosterConfig struct {
	// Days 排班天数（0 表示一个周期）
	Days int `koanf:"days"`
	// BaseRatioOverride 在营比例覆盖（0 表示不覆盖）
	BaseRatioOverride float64 `koanf:"base_ratio_override"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	Path    string `koanf:"path"`
}

// Default 返回内置默认配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:      "zhiban",
			Env:       "development",
			LogLevel:  "info",
			LogFormat: "console",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "zhiban",
			User:            "zhiban",
			Password:        "zhiban123",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Engine: EngineConfig{
			Version:       2,
			StrictOrganic: false,
			Timeout:       30 * time.Second,
		},
		Roster: RosterConfig{
			Days: 0,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// Load 加载配置
// path 为空时仅使用默认值与环境变量
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = kjson.Parser()
		default:
			return nil, fmt.Errorf("不支持的配置文件格式: %s", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// envKey 将环境变量名映射为配置键
// ZHIBAN_DATABASE__MAX_OPEN_CONNS -> database.max_open_conns
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoggerConfig 返回日志配置
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = c.App.LogLevel
	cfg.Format = c.App.LogFormat
	return cfg
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
