package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/inject/logging"
)

// HostedService 托管服务接口（类似于 .NET Core IHostedService）
// 框架会自动在 goroutine 中调用 Start，用户无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑。当 Start 的 context 被取消时服务应自动停止，
	// Stop 用于执行额外的清理工作。
	Stop(ctx context.Context) error
}

type namedService struct {
	name    string
	service HostedService
}

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []namedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostedServiceManager{
		services: make([]namedService, 0),
		logger:   logger,
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(name string, service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, namedService{name: name, service: service})
}

// Len 返回已添加的服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 在各自的 goroutine 中启动所有托管服务。
// 返回的通道接收服务的非取消错误，所有服务的 Start 返回后关闭。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	services := append([]namedService(nil), m.services...)
	m.mu.RUnlock()

	errCh := make(chan error, len(services))
	m.logger.Info("starting hosted services", logging.Field{Key: "count", Value: len(services)})

	var started sync.WaitGroup
	for _, ns := range services {
		m.wg.Add(1)
		started.Add(1)
		go func(ns namedService) {
			defer m.wg.Done()
			defer started.Done()

			m.logger.Debug("hosted service starting", logging.Field{Key: "service", Value: ns.name})
			err := ns.service.Start(ctx)
			switch {
			case err == nil:
				m.logger.Info("hosted service completed", logging.Field{Key: "service", Value: ns.name})
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("hosted service stopped (context done)", logging.Field{Key: "service", Value: ns.name})
			default:
				m.logger.Error("hosted service failed",
					logging.Field{Key: "service", Value: ns.name},
					logging.Field{Key: "error", Value: err})
				errCh <- fmt.Errorf("hosted service %s: %w", ns.name, err)
			}
		}(ns)
	}

	go func() {
		started.Wait()
		close(errCh)
	}()
	return errCh
}

// StopAll 并发停止所有托管服务，错误合并返回
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	services := append([]namedService(nil), m.services...)
	m.mu.RUnlock()

	m.logger.Info("stopping hosted services", logging.Field{Key: "count", Value: len(services)})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := len(services) - 1; i >= 0; i-- {
		wg.Add(1)
		go func(ns namedService) {
			defer wg.Done()
			if err := ns.service.Stop(ctx); err != nil {
				m.logger.Error("failed to stop hosted service",
					logging.Field{Key: "service", Value: ns.name},
					logging.Field{Key: "error", Value: err})
				mu.Lock()
				errs = append(errs, fmt.Errorf("hosted service %s: %w", ns.name, err))
				mu.Unlock()
				return
			}
			m.logger.Debug("hosted service stopped", logging.Field{Key: "service", Value: ns.name})
		}(services[i])
	}
	wg.Wait()

	m.logger.Info("all hosted services stopped")
	return errors.Join(errs...)
}

// Wait 等待所有服务的 Start 返回，ctx 结束时提前返回其错误
func (m *HostedServiceManager) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BackgroundService 后台服务基类，Start 阻塞直到 Stop 被调用或 ctx 结束
type BackgroundService struct {
	name     string
	logger   logging.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}
	doneOnce sync.Once
}

// NewBackgroundService 创建后台服务
func NewBackgroundService(name string, logger logging.Logger) *BackgroundService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BackgroundService{
		name:   name,
		logger: logger.WithFields(logging.Field{Key: "service", Value: name}),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Name 返回服务名称
func (s *BackgroundService) Name() string {
	return s.name
}

// Start 启动后台服务
func (s *BackgroundService) Start(ctx context.Context) error {
	defer s.Done()
	s.logger.Info("background service starting")

	select {
	case <-s.stopCh:
		s.logger.Info("background service stopped by signal")
	case <-ctx.Done():
		s.logger.Info("background service context cancelled")
	}
	return nil
}

// Stop 发出停止信号并等待 Start 返回或 ctx 超时
func (s *BackgroundService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		s.logger.Warn("background service stop timeout")
		return ctx.Err()
	}
}

// ShouldStop 检查是否应该停止
func (s *BackgroundService) ShouldStop() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// StopChan 返回停止通道，用于在 select 中监听
func (s *BackgroundService) StopChan() <-chan struct{} {
	return s.stopCh
}

// Done 标记服务完成
func (s *BackgroundService) Done() {
	s.doneOnce.Do(func() {
		close(s.doneCh)
	})
}

// TimedHostedService 定时托管服务
type TimedHostedService struct {
	*BackgroundService
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewTimedHostedService 创建定时托管服务
func NewTimedHostedService(name string, interval time.Duration, task func(ctx context.Context) error, logger logging.Logger) *TimedHostedService {
	return &TimedHostedService{
		BackgroundService: NewBackgroundService(name, logger),
		interval:          interval,
		task:              task,
	}
}

// Start 按间隔执行任务，任务失败只记录日志
func (s *TimedHostedService) Start(ctx context.Context) error {
	defer s.Done()
	s.logger.Info("timed service running", logging.Field{Key: "interval", Value: s.interval.String()})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				s.logger.Error("timed task failed", logging.Field{Key: "error", Value: err})
			}
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WorkerFunc 阻塞的后台任务函数，通过 ctx.Done() 判断退出
type WorkerFunc func(ctx context.Context) error

// Worker 把 WorkerFunc 适配为 HostedService，Stop 只等待函数返回
type Worker struct {
	*BackgroundService
	fn WorkerFunc
}

// NewWorker 创建后台任务服务
func NewWorker(name string, fn WorkerFunc, logger logging.Logger) *Worker {
	return &Worker{
		BackgroundService: NewBackgroundService(name, logger),
		fn:                fn,
	}
}

// Start 运行任务函数。Stop 被调用时取消传给函数的 ctx。
func (w *Worker) Start(ctx context.Context) error {
	defer w.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return w.fn(ctx)
}
