package cron

import (
	"context"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
)

var (
	// ServiceType Cron 服务在根注入器中的类型
	ServiceType = di.Value("cron.Service")
	// ServiceToken Cron 服务的令牌
	ServiceToken = di.Name("cron")
)

// BuilderOption 用于配置 Cron Builder
type BuilderOption func(*Builder)

// WithSeconds 启用秒级精度
func WithSeconds() BuilderOption {
	return func(b *Builder) {
		b.WithSeconds()
	}
}

// WithLocation 设置时区
func WithLocation(location string) BuilderOption {
	return func(b *Builder) {
		b.WithLocation(location)
	}
}

// EnableCronLogger 启用 cron 库的内部调度日志
func EnableCronLogger() BuilderOption {
	return func(b *Builder) {
		b.EnableCronLogger()
	}
}

// AddJob 添加依赖注入任务
func AddJob(spec, name string, job *di.Type) BuilderOption {
	return func(b *Builder) {
		b.AddJob(spec, name, job)
	}
}

// AddFunc 添加简单任务
func AddFunc(spec, name string, fn func(ctx context.Context) error) BuilderOption {
	return func(b *Builder) {
		b.AddFunc(spec, name, fn)
	}
}

// New 启用 Cron 能力。服务作为托管服务随运行时启动和停止，
// 任务类型若尚未注册会以默认生命周期注册到根注入器。
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		return rt.OnBuild(func(rt *core.Runtime) error {
			builder := NewBuilder()
			for _, opt := range opts {
				opt(builder)
			}

			svc, err := builder.build(rt.Injector, rt.LoggerFactory.CreateLogger("cron"))
			if err != nil {
				return err
			}

			registered := rt.Injector.Registrations()
			for _, def := range builder.jobs {
				if def.job == nil {
					continue
				}
				if _, ok := registered[def.job]; ok {
					continue
				}
				if err := rt.Injector.Register(def.job); err != nil {
					return err
				}
			}

			return rt.Injector.RegisterInstance(ServiceType, svc,
				di.WithTokens(ServiceToken),
				di.WithStrategy(core.HostedServicesKey))
		})
	}
}
