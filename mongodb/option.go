package mongodb

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// DefaultName 默认客户端名称，该客户端同时以 DefaultToken 注册
const DefaultName = "default"

var (
	// FactoryType 客户端工厂在根注入器中的类型
	FactoryType = di.Value("mongodb.Factory")
	// DefaultToken 默认客户端的令牌
	DefaultToken = di.Name("mongodb")
)

// Token 返回命名客户端的令牌 "mongodb:<name>"
func Token(name string) di.Name {
	return di.Name("mongodb:" + name)
}

// DatabaseToken 返回命名客户端默认数据库的令牌 "mongodb:<name>:database"
func DatabaseToken(name string) di.Name {
	return di.Name("mongodb:" + name + ":database")
}

// BuilderOption 用于配置 MongoDB Builder
type BuilderOption func(*Builder)

// WithClient 添加 MongoDB 客户端配置
func WithClient(name string, uri string, opts ...func(*Options)) BuilderOption {
	return func(b *Builder) {
		b.Add(name, uri, func(o *Options) {
			for _, opt := range opts {
				opt(o)
			}
		})
	}
}

// WithPing 启动时检查所有客户端的连通性
func WithPing() BuilderOption {
	return func(b *Builder) {
		b.ping = true
	}
}

// New 启用 MongoDB 能力。section 非空时额外从该配置节读取客户端。
// 客户端以预置实例注册到根注入器，令牌为 Token(name)；配置了 Database 的客户端
// 还会以 DatabaseToken(name) 注册对应的 *mongo.Database。
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

			logger := rt.LoggerFactory.CreateLogger("mongodb")
			factory, err := builder.Build(logger)
			if err != nil || factory == nil {
				return err
			}

			if err := rt.Injector.RegisterInstance(FactoryType, factory); err != nil {
				return err
			}

			var regErr error
			factory.Each(func(name string, client *mongo.Client) {
				if regErr != nil {
					return
				}
				tokens := []di.Token{Token(name)}
				if name == DefaultName {
					tokens = append(tokens, DefaultToken)
				}
				t := di.Value(fmt.Sprintf("mongodb.Client(%s)", name))
				if regErr = rt.Injector.RegisterInstance(t, client, di.WithTokens(tokens...)); regErr != nil {
					return
				}
				if db, ok := factory.Database(name); ok {
					dbType := di.Value(fmt.Sprintf("mongodb.Database(%s)", name))
					regErr = rt.Injector.RegisterInstance(dbType, db, di.WithTokens(DatabaseToken(name)))
				}
			})
			if regErr != nil {
				return fmt.Errorf("mongodb: failed to register instance: %w", regErr)
			}

			if builder.ping {
				rt.Lifecycle.OnStart(factory.Ping)
			}
			rt.Lifecycle.OnStop(func(ctx context.Context) error {
				logger.Info("closing mongo clients")
				return factory.Close()
			})
			return nil
		})
	}
}
