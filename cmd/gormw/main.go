// Package main 是回放中间件的可执行入口。
//
// 从标准输入读取回放进程写入的记录，经路由器处理后写回标准输出；
// 日志写入标准错误。配置来自 GORMW_ 前缀的环境变量（可选 .env 文件）。
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/uniyakcom/gormw/config"
	"github.com/uniyakcom/gormw/examples/tokenmap"
	"github.com/uniyakcom/gormw/marshal"
	"github.com/uniyakcom/gormw/message"
	"github.com/uniyakcom/gormw/middleware/logging"
	"github.com/uniyakcom/gormw/plugin/metrics"
	"github.com/uniyakcom/gormw/pubsub/pipe"
	"github.com/uniyakcom/gormw/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gormw: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	r, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	pub := pipe.NewPublisher(os.Stdout)
	g.Go(func() error {
		// 输入结束即退出，同时停止其它服务
		defer cancel()
		defer pub.Close()
		return r.Run(ctx, pipe.NewSubscriber(os.Stdin, cfg.Subscriber()), pub)
	})

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      metricsMux(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting metrics server", slog.String("address", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func newRouter(cfg config.Config, logger *slog.Logger) (*router.Router, error) {
	r := router.New(cfg.Router(logger))

	m := metrics.New("gormw", prometheus.DefaultRegisterer)
	r.Use(m.Middleware())
	r.AddPlugin(m)

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		r.Use(logging.New(logger))
	}

	if cfg.Dump {
		if err := r.Tap(dumper(logger)); err != nil {
			return nil, fmt.Errorf("dump tap: %w", err)
		}
	}

	if cfg.TokenHeader != "" {
		tm, err := tokenmap.New(tokenmap.Config{
			Header:  cfg.TokenHeader,
			Pattern: cfg.TokenPattern,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("token map: %w", err)
		}
		tm.Register(r)
	}
	return r, nil
}

// dumper 以 JSON 形式把每条处理后的消息写到标准错误
func dumper(logger *slog.Logger) router.TapFunc {
	var mu sync.Mutex
	codec := marshal.JSON{}
	return func(msg *message.Message, suppressed bool) {
		data, err := codec.Marshal(msg)
		if err != nil {
			logger.Warn("dump", "id", msg.ID, "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if suppressed {
			os.Stderr.WriteString("# suppressed\n")
		}
		os.Stderr.Write(data)
	}
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
