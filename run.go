package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/inject/core"
)

// ShutdownTimeout 优雅关闭的默认超时时间，可由配置键 app:shutdownTimeout 覆盖
const ShutdownTimeout = 5 * time.Second

// Run 启动应用程序并阻塞，直到收到 SIGINT/SIGTERM 或运行时请求退出
func Run(opts ...core.Option) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, opts...)
}

// RunContext 与 Run 相同，但以 ctx 结束代替系统信号
func RunContext(ctx context.Context, opts ...core.Option) error {
	rt, err := New(opts...)
	if err != nil {
		return err
	}

	if err := rt.Start(ctx); err != nil {
		return errors.Join(err, shutdown(rt))
	}

	select {
	case <-ctx.Done():
	case <-rt.Done():
	}
	return shutdown(rt)
}

func shutdown(rt *core.Runtime) error {
	timeout := ShutdownTimeout
	if value := rt.Config.Get("app:shutdownTimeout"); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			timeout = d
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return rt.Stop(ctx)
}
