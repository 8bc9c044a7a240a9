package redis

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/redis/go-redis/v9"
)

// DefaultName 默认客户端名称，该客户端同时以 DefaultToken 注册
const DefaultName = "default"

var (
	// FactoryType 客户端工厂在根注入器中的类型
	FactoryType = di.Value("redis.ClientFactory")
	// DefaultToken 默认客户端的令牌
	DefaultToken = di.Name("redis")
)

// Token 返回命名客户端的令牌 "redis:<name>"
func Token(name string) di.Name {
	return di.Name("redis:" + name)
}

// BuilderOption 用于配置 Redis Builder
type BuilderOption func(*Builder)

// WithClient 添加 Redis 客户端配置
func WithClient(name string, opts ...func(*ClientOptions)) BuilderOption {
	return func(b *Builder) {
		b.AddClient(name, func(o *ClientOptions) {
			for _, opt := range opts {
				opt(o)
			}
		})
	}
}

// WithPing 启动时检查所有客户端的连通性，失败时应用无法启动
func WithPing() BuilderOption {
	return func(b *Builder) {
		b.ping = true
	}
}

// New 启用 Redis 能力。section 非空时额外从该配置节读取客户端。
//
// 客户端以预置实例注册到根注入器，令牌为 Token(name)；依赖方通过令牌绑定注入：
//
//	inj.Metadata().Register(di.ParamToken(userCache, 0, redis.Token("cache")))
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

			logger := rt.LoggerFactory.CreateLogger("redis")
			factory, err := builder.Build(logger)
			if err != nil || factory == nil {
				return err
			}

			if err := rt.Injector.RegisterInstance(FactoryType, factory); err != nil {
				return err
			}

			var regErr error
			factory.Each(func(name string, client *redis.Client) {
				if regErr != nil {
					return
				}
				tokens := []di.Token{Token(name)}
				if name == DefaultName {
					tokens = append(tokens, DefaultToken)
				}
				t := di.Value(fmt.Sprintf("redis.Client(%s)", name))
				regErr = rt.Injector.RegisterInstance(t, client, di.WithTokens(tokens...))
			})
			if regErr != nil {
				return fmt.Errorf("redis: failed to register client: %w", regErr)
			}

			if builder.ping {
				rt.Lifecycle.OnStart(factory.Ping)
			}
			rt.Lifecycle.OnStop(func(ctx context.Context) error {
				logger.Info("closing redis clients", logging.Field{Key: "count", Value: len(factory.Names())})
				return factory.Close()
			})
			return nil
		})
	}
}
