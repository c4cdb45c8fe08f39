// Package config 读取可执行程序的环境配置。
//
// 先加载可选的 .env 文件，再由环境变量覆盖，所有变量以 GORMW_ 为前缀。
// 库代码只接收普通的配置结构体，不直接读取环境。
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/uniyakcom/gormw/pubsub/pipe"
	"github.com/uniyakcom/gormw/router"
)

// Config 程序配置
type Config struct {
	// 日志（写 stderr，stdout 是数据通道）
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// 订阅表
	TTL           time.Duration `env:"TTL"            envDefault:"60s"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1s"`

	// 输入
	MaxLine int `env:"MAX_LINE" envDefault:"67108864"`

	// 观测
	MetricsAddr string `env:"METRICS_ADDR"`
	TapWorkers  int    `env:"TAP_WORKERS" envDefault:"1"`
	Dump        bool   `env:"DUMP"`

	// 令牌映射示例，TokenHeader 为空时不启用
	TokenHeader  string `env:"TOKEN_HEADER"`
	TokenPattern string `env:"TOKEN_PATTERN" envDefault:"X-Set-Token: (\\w+)"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Prefix 环境变量前缀
const Prefix = "GORMW_"

// ErrInvalid 配置值不合法
var ErrInvalid = errors.New("invalid config")

// Load 加载 files 指定的 .env 文件（默认 ".env"，不存在时忽略）后解析环境变量。
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// .env 文件可选
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate 校验配置
func (c Config) Validate() error {
	switch {
	case c.TTL <= 0:
		return fmt.Errorf("%w: TTL must be positive, got %v", ErrInvalid, c.TTL)
	case c.SweepInterval <= 0:
		return fmt.Errorf("%w: SWEEP_INTERVAL must be positive, got %v", ErrInvalid, c.SweepInterval)
	case c.MaxLine <= 0:
		return fmt.Errorf("%w: MAX_LINE must be positive, got %d", ErrInvalid, c.MaxLine)
	case c.TapWorkers <= 0:
		return fmt.Errorf("%w: TAP_WORKERS must be positive, got %d", ErrInvalid, c.TapWorkers)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Logger 按配置创建写入 w 的日志
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Router 返回对应的路由器配置
func (c Config) Router(logger *slog.Logger) router.Config {
	return router.Config{
		Logger:        logger,
		TTL:           c.TTL,
		SweepInterval: c.SweepInterval,
		TapWorkers:    c.TapWorkers,
	}
}

// Subscriber 返回对应的输入端配置
func (c Config) Subscriber() pipe.SubscriberConfig {
	return pipe.SubscriberConfig{MaxLine: c.MaxLine}
}
