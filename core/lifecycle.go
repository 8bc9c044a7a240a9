package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/inject/logging"
)

// Hook 生命周期钩子
type Hook func(ctx context.Context) error

// LifecycleEvents 管理应用程序的生命周期
type LifecycleEvents struct {
	mu      sync.Mutex
	onStart []Hook
	onStop  []Hook
	logger  logging.Logger
}

// NewLifecycle 创建新的生命周期管理器
func NewLifecycle() *LifecycleEvents {
	return &LifecycleEvents{
		onStart: make([]Hook, 0),
		onStop:  make([]Hook, 0),
		logger:  logging.NewNopLogger(),
	}
}

func (l *LifecycleEvents) setLogger(logger logging.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}

// OnStart 注册启动钩子
func (l *LifecycleEvents) OnStart(fn Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// OnStop 注册停止钩子
func (l *LifecycleEvents) OnStop(fn Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStop = append(l.onStop, fn)
}

// Start 按注册顺序执行启动钩子，遇到第一个错误即返回
func (l *LifecycleEvents) Start(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.onStart...)
	logger := l.logger
	l.mu.Unlock()

	for i, fn := range hooks {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("core: start hook %d failed: %w", i, err)
		}
	}
	logger.Debug("start hooks completed", logging.Field{Key: "count", Value: len(hooks)})
	return nil
}

// Stop 倒序执行停止钩子。单个钩子失败不会中断其余钩子，所有错误合并返回。
func (l *LifecycleEvents) Stop(ctx context.Context) error {
	l.mu.Lock()
	hooks := append([]Hook(nil), l.onStop...)
	logger := l.logger
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			logger.Error("stop hook failed",
				logging.Field{Key: "index", Value: i},
				logging.Field{Key: "error", Value: err})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
