package web

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
)

var (
	// HostType Web 主机在根注入器中的类型
	HostType = di.Value("web.Host")
	// HostToken Web 主机的令牌
	HostToken = di.Name("web")
)

// Options Web 主机配置节
type Options struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Mode    string `json:"mode"`
}

// BuilderOption 用于配置 Web Builder
type BuilderOption func(*Builder)

// WithPort 设置端口
func WithPort(port int) BuilderOption {
	return func(b *Builder) {
		b.UsePort(port)
	}
}

// WithAddress 设置监听主机地址
func WithAddress(address string) BuilderOption {
	return func(b *Builder) {
		b.UseAddress(address)
	}
}

// WithControllers 添加控制器类型
func WithControllers(controllers ...*di.Type) BuilderOption {
	return func(b *Builder) {
		b.AddControllers(controllers...)
	}
}

// WithMiddleware 添加全局中间件
func WithMiddleware(middleware ...gin.HandlerFunc) BuilderOption {
	return func(b *Builder) {
		b.Use(middleware...)
	}
}

// WithRoutes 直接在构建器上注册路由
func WithRoutes(fn func(b *Builder)) BuilderOption {
	return fn
}

// WithoutRequestScope 关闭请求作用域
func WithoutRequestScope() BuilderOption {
	return func(b *Builder) {
		b.DisableRequestScope()
	}
}

// New 启用 Web 能力。section 非空时先从该配置节读取 Options，再应用 opts。
//
// 控制器以 ControllersKey 策略组注册到根注入器；主机作为托管服务随运行时启动，
// 默认每个请求创建一个子作用域，请求处理器通过 Resolve 在其中解析请求级服务。
func New(section string, opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		return rt.OnBuild(func(rt *core.Runtime) error {
			builder := NewBuilder()
			if section != "" {
				o, err := config.SectionOrDefault(rt.Config, section, Options{Port: builder.port})
				if err != nil {
					return fmt.Errorf("web: invalid configuration section %q: %w", section, err)
				}
				builder.UseAddress(o.Address).UsePort(o.Port)
				if o.Mode != "" {
					builder.SetMode(o.Mode)
				}
			}
			for _, opt := range opts {
				opt(builder)
			}

			for _, t := range builder.controllers {
				if err := rt.Injector.Register(t, di.WithStrategy(ControllersKey)); err != nil {
					return fmt.Errorf("web: failed to register controller %s: %w", t, err)
				}
			}

			host := builder.build(rt.Injector, rt.LoggerFactory.CreateLogger("web"))
			return rt.Injector.RegisterInstance(HostType, host,
				di.WithTokens(HostToken),
				di.WithStrategy(core.HostedServicesKey))
		})
	}
}
