// Package logger 提供统一的日志框架
package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器，重复调用只生效一次
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))

		output := openOutput(cfg)
		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
		}
		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// openOutput 打开日志输出目标，文件打开失败时退回标准输出
func openOutput(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return os.Stdout
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	default:
		return os.Stdout
	}
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// EngineLogger 排班引擎专用日志器
type EngineLogger struct {
	base *zerolog.Logger
}

// NewEngineLogger 创建排班引擎日志器
func NewEngineLogger(component string) *EngineLogger {
	l := Get().With().Str("component", component).Logger()
	return &EngineLogger{base: &l}
}

// StartSolve 记录单日求解开始
func (l *EngineLogger) StartSolve(date string, shifts, people int) {
	l.base.Info().
		Str("date", date).
		Int("shifts", shifts).
		Int("people", people).
		Msg("开始求解班次分配")
}

// SolveComplete 记录单日求解完成
func (l *EngineLogger) SolveComplete(date string, duration time.Duration, filled, total int) {
	l.base.Info().
		Str("date", date).
		Dur("duration", duration).
		Int("filled_slots", filled).
		Int("total_slots", total).
		Msg("班次分配求解完成")
}

// ShiftSkipped 记录跳过的班次
func (l *EngineLogger) ShiftSkipped(shiftID, reason string) {
	l.base.Warn().
		Str("shift_id", shiftID).
		Str("reason", reason).
		Msg("跳过班次")
}

// SlotUnfilled 记录未填满的班位
func (l *EngineLogger) SlotUnfilled(shiftID, roleID, reason string, missing int) {
	l.base.Warn().
		Str("shift_id", shiftID).
		Str("role_id", roleID).
		Str("reason", reason).
		Int("missing", missing).
		Msg("班位未填满")
}

// RosterStart 记录轮换排班开始
func (l *EngineLogger) RosterStart(startDate string, people, days int) {
	l.base.Info().
		Str("start_date", startDate).
		Int("people", people).
		Int("days", days).
		Msg("开始生成轮换排班")
}

// RosterComplete 记录轮换排班完成
func (l *EngineLogger) RosterComplete(duration time.Duration, entries int, fulfillment float64) {
	l.base.Info().
		Dur("duration", duration).
		Int("entries", entries).
		Float64("fulfillment_rate", fulfillment).
		Msg("轮换排班生成完成")
}

// RosterWarning 记录轮换排班告警
func (l *EngineLogger) RosterWarning(message string) {
	l.base.Warn().Msg(message)
}
