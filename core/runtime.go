package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// Runtime 应用运行时状态容器。
//
// Option 在 Build 之前修改 Runtime；Build 加载配置、创建日志工厂和根注入器，
// 并按注册顺序回放所有延迟的注册。Build 之后 Injector、Config 与 Logger 可用。
type Runtime struct {
	// Injector 根注入器，Build 之后可用
	Injector *di.Injector

	// Config 应用配置。未通过 WithConfiguration 指定时由 WithConfig 收集的配置源构建
	Config config.Configuration

	// LoggerFactory 日志工厂，未指定时按配置节 "logging" 创建
	LoggerFactory logging.LoggerFactory

	// Logger 应用日志记录器
	Logger logging.Logger

	// Lifecycle 生命周期管理
	Lifecycle *LifecycleEvents

	// ErrorHandler 接收运行时产生的严重错误，默认写入 Logger
	ErrorHandler func(err error)

	configBuilder *config.ConfigurationBuilder
	logging       []func(*logging.LoggingBuilder)
	diOptions     []di.Option
	steps         []func(rt *Runtime) error
	hosted        *hostedServices

	mu           sync.Mutex
	built        bool
	stopped      bool
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

// NewRuntime 创建一个新的运行时实例
func NewRuntime() *Runtime {
	return &Runtime{
		Lifecycle:     NewLifecycle(),
		configBuilder: config.NewConfigurationBuilder(),
		shutdownCh:    make(chan struct{}),
	}
}

// Apply 按顺序应用 Option，遇到第一个错误即返回
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}

// OnBuild 注册在 Build 阶段执行的步骤。Build 之后调用时立即执行。
func (rt *Runtime) OnBuild(fn func(rt *Runtime) error) error {
	rt.mu.Lock()
	if !rt.built {
		rt.steps = append(rt.steps, fn)
		rt.mu.Unlock()
		return nil
	}
	rt.mu.Unlock()
	return fn(rt)
}

// Provide 在根注入器上注册类型
func (rt *Runtime) Provide(t *di.Type, opts ...di.RegisterOption) error {
	return rt.OnBuild(func(rt *Runtime) error {
		return rt.Injector.Register(t, opts...)
	})
}

// ProvideInstance 在根注入器上注册已有实例
func (rt *Runtime) ProvideInstance(t *di.Type, instance any, opts ...di.RegisterOption) error {
	return rt.OnBuild(func(rt *Runtime) error {
		return rt.Injector.RegisterInstance(t, instance, opts...)
	})
}

// Build 构建运行时，多次调用只生效一次
func (rt *Runtime) Build() error {
	rt.mu.Lock()
	if rt.built {
		rt.mu.Unlock()
		return nil
	}
	rt.built = true
	steps := rt.steps
	rt.steps = nil
	rt.mu.Unlock()

	if rt.Config == nil {
		cfg, err := rt.configBuilder.Build()
		if err != nil {
			return fmt.Errorf("core: failed to load configuration: %w", err)
		}
		rt.Config = cfg
	}

	if err := rt.buildLogging(); err != nil {
		return err
	}

	diConfig, err := di.LoadConfiguration(rt.Config, "di")
	if err != nil {
		return fmt.Errorf("core: %w", err)
	}
	opts := append([]di.Option{
		di.WithName("root"),
		di.WithConfiguration(diConfig),
		di.WithLogger(rt.Logger),
	}, rt.diOptions...)
	rt.Injector = di.New(opts...)

	if err := rt.registerRuntime(); err != nil {
		return err
	}

	for _, step := range steps {
		if err := step(rt); err != nil {
			return fmt.Errorf("core: build failed: %w", err)
		}
	}

	rt.hosted = newHostedServices(rt)
	rt.Lifecycle.OnStart(rt.hosted.start)
	rt.Lifecycle.OnStop(rt.hosted.stop)

	rt.Logger.Debug("runtime built",
		logging.Field{Key: "injector", Value: rt.Injector.ID()},
		logging.Field{Key: "registrations", Value: len(rt.Injector.Registrations())})
	return nil
}

func (rt *Runtime) buildLogging() error {
	if rt.LoggerFactory == nil {
		opts, err := config.SectionOrDefault(rt.Config, "logging", logging.DefaultOptions())
		if err != nil {
			return fmt.Errorf("core: invalid logging configuration: %w", err)
		}
		builder := logging.NewLoggingBuilder()
		if len(rt.logging) == 0 {
			builder.Configure(opts)
		} else {
			builder.SetMinimumLevel(opts.Level)
		}
		for _, configure := range rt.logging {
			configure(builder)
		}
		rt.LoggerFactory = builder.Build()
	}

	rt.Lifecycle.setLogger(rt.LoggerFactory.CreateLogger("lifecycle"))
	if rt.Logger == nil {
		rt.Logger = rt.LoggerFactory.CreateLogger("app")
	}
	return nil
}

// registerRuntime 把运行时自身的组件注册为预置实例，供其他类型注入
func (rt *Runtime) registerRuntime() error {
	entries := []struct {
		t     *di.Type
		value any
		token di.Token
	}{
		{RuntimeType, rt, RuntimeToken},
		{ConfigurationType, rt.Config, ConfigToken},
		{LoggerFactoryType, rt.LoggerFactory, LoggerFactoryToken},
		{LoggerType, rt.Logger, LoggerToken},
		{LifecycleType, rt.Lifecycle, LifecycleToken},
	}
	for _, e := range entries {
		if err := rt.Injector.RegisterInstance(e.t, e.value, di.WithTokens(e.token)); err != nil {
			return fmt.Errorf("core: failed to register %s: %w", e.t, err)
		}
	}
	return nil
}

// Start 构建运行时并执行启动钩子
func (rt *Runtime) Start(ctx context.Context) error {
	if err := rt.Build(); err != nil {
		return err
	}
	rt.Logger.Info("runtime starting")
	return rt.Lifecycle.Start(ctx)
}

// Stop 执行停止钩子，销毁根注入器并关闭日志工厂。多次调用只生效一次。
func (rt *Runtime) Stop(ctx context.Context) error {
	rt.mu.Lock()
	if rt.stopped || !rt.built {
		rt.mu.Unlock()
		return nil
	}
	rt.stopped = true
	rt.mu.Unlock()

	rt.Logger.Info("runtime stopping")

	var errs []error
	if err := rt.Lifecycle.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := rt.Injector.Destroy(); err != nil && !errors.Is(err, di.ErrDestroyed) {
		errs = append(errs, err)
	}
	rt.Logger.Info("runtime stopped")

	if err := rt.LoggerFactory.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Shutdown 请求应用退出
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() {
		close(rt.shutdownCh)
	})
}

// Done 返回一个通道，当应用需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.shutdownCh
}

// reportError 记录严重错误
func (rt *Runtime) reportError(err error) {
	if rt.ErrorHandler != nil {
		rt.ErrorHandler(err)
		return
	}
	if rt.Logger != nil {
		rt.Logger.Error("runtime error", logging.Field{Key: "error", Value: err})
	}
}
