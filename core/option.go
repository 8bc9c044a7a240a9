package core

import (
	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// Option 定义了修改 Runtime 状态的函数签名
// 这是框架唯一的扩展点
type Option func(rt *Runtime) error

// WithConfig 向配置构建器添加配置源，后添加的覆盖先添加的
//
// 示例：
//
//	core.WithConfig(func(b *config.ConfigurationBuilder) {
//	    b.AddYamlFile("config.yaml", true).AddEnvironmentVariables("APP_")
//	})
func WithConfig(configure func(b *config.ConfigurationBuilder)) Option {
	return func(rt *Runtime) error {
		configure(rt.configBuilder)
		return nil
	}
}

// WithConfiguration 直接使用已构建的配置，WithConfig 添加的配置源将被忽略
func WithConfiguration(cfg config.Configuration) Option {
	return func(rt *Runtime) error {
		rt.Config = cfg
		return nil
	}
}

// WithLogging 自定义日志构建器。设置后不再按配置节添加默认的控制台与文件输出，
// 只保留其中的日志级别。
func WithLogging(configure func(b *logging.LoggingBuilder)) Option {
	return func(rt *Runtime) error {
		rt.logging = append(rt.logging, configure)
		return nil
	}
}

// WithLoggerFactory 使用已有的日志工厂
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return func(rt *Runtime) error {
		rt.LoggerFactory = factory
		return nil
	}
}

// WithInjector 追加根注入器选项，在配置节 "di" 之后应用
func WithInjector(opts ...di.Option) Option {
	return func(rt *Runtime) error {
		rt.diOptions = append(rt.diOptions, opts...)
		return nil
	}
}

// Provide 在根注入器上注册类型
func Provide(t *di.Type, opts ...di.RegisterOption) Option {
	return func(rt *Runtime) error {
		return rt.Provide(t, opts...)
	}
}

// ProvideInstance 在根注入器上注册已有实例
func ProvideInstance(t *di.Type, instance any, opts ...di.RegisterOption) Option {
	return func(rt *Runtime) error {
		return rt.ProvideInstance(t, instance, opts...)
	}
}

// Invoke 在 Build 阶段执行 fn，此时注入器与配置均已可用
func Invoke(fn func(rt *Runtime) error) Option {
	return func(rt *Runtime) error {
		return rt.OnBuild(fn)
	}
}
