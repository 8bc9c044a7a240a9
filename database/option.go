package database

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"gorm.io/gorm"
)

// DefaultName 默认数据库名称，该连接同时以 DefaultToken 注册
const DefaultName = "default"

var (
	// FactoryType 数据库工厂在根注入器中的类型
	FactoryType = di.Value("database.Factory")
	// DefaultToken 默认连接的令牌
	DefaultToken = di.Name("database")
)

// Token 返回命名连接的令牌 "database:<name>"
func Token(name string) di.Name {
	return di.Name("database:" + name)
}

// BuilderOption 用于配置 Database Builder
type BuilderOption func(*Builder)

// WithDatabase 添加数据库配置
func WithDatabase(name string, dialector gorm.Dialector, opts ...func(*Options)) BuilderOption {
	return func(b *Builder) {
		b.Add(name, dialector, func(o *Options) {
			for _, opt := range opts {
				opt(o)
			}
		})
	}
}

// WithPing 启动时检查所有连接
func WithPing() BuilderOption {
	return func(b *Builder) {
		b.ping = true
	}
}

// New 启用数据库能力。section 非空时额外从该配置节读取数据库。
// 连接以预置实例注册到根注入器，令牌为 Token(name)。
func New(section string, opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		return rt.OnBuild(func(rt *core.Runtime) error {
			builder := NewBuilder()
			if section != "" {
				builder.AddFromConfig(rt.Config, section)
			}
			for _, opt := range opts {
				opt(builder)
			}

			logger := rt.LoggerFactory.CreateLogger("database")
			factory, err := builder.Build(logger)
			if err != nil || factory == nil {
				return err
			}

			if err := rt.Injector.RegisterInstance(FactoryType, factory); err != nil {
				return err
			}

			var regErr error
			factory.Each(func(name string, db *gorm.DB) {
				if regErr != nil {
					return
				}
				tokens := []di.Token{Token(name)}
				if name == DefaultName {
					tokens = append(tokens, DefaultToken)
				}
				t := di.Value(fmt.Sprintf("database.DB(%s)", name))
				regErr = rt.Injector.RegisterInstance(t, db, di.WithTokens(tokens...))
			})
			if regErr != nil {
				return fmt.Errorf("database: failed to register instance: %w", regErr)
			}

			if builder.ping {
				rt.Lifecycle.OnStart(factory.Ping)
			}
			rt.Lifecycle.OnStop(func(ctx context.Context) error {
				logger.Info("closing database connections")
				return factory.Close()
			})
			return nil
		})
	}
}
