package etcd

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// DefaultName 默认客户端名称，该客户端同时以 DefaultToken 注册
const DefaultName = "default"

var (
	// FactoryType 客户端工厂在根注入器中的类型
	FactoryType = di.Value("etcd.ClientFactory")
	// DefaultToken 默认客户端的令牌
	DefaultToken = di.Name("etcd")
)

// Token 返回命名客户端的令牌 "etcd:<name>"
func Token(name string) di.Name {
	return di.Name("etcd:" + name)
}

// BuilderOption 用于配置 etcd Builder
type BuilderOption func(*Builder)

// WithClient 添加 etcd 客户端配置
func WithClient(name string, opts ...func(*ClientOptions)) BuilderOption {
	return func(b *Builder) {
		b.AddClient(name, func(o *ClientOptions) {
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

// New 启用 etcd 能力。section 非空时额外从该配置节读取客户端。
// 客户端以预置实例注册到根注入器，令牌为 Token(name)。
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

			logger := rt.LoggerFactory.CreateLogger("etcd")
			factory, err := builder.Build(logger)
			if err != nil || factory == nil {
				return err
			}

			if err := rt.Injector.RegisterInstance(FactoryType, factory); err != nil {
				return err
			}

			var regErr error
			factory.Each(func(name string, client *clientv3.Client) {
				if regErr != nil {
					return
				}
				tokens := []di.Token{Token(name)}
				if name == DefaultName {
					tokens = append(tokens, DefaultToken)
				}
				t := di.Value(fmt.Sprintf("etcd.Client(%s)", name))
				regErr = rt.Injector.RegisterInstance(t, client, di.WithTokens(tokens...))
			})
			if regErr != nil {
				return fmt.Errorf("etcd: failed to register client: %w", regErr)
			}

			if builder.ping {
				rt.Lifecycle.OnStart(factory.Ping)
			}
			rt.Lifecycle.OnStop(func(ctx context.Context) error {
				logger.Info("closing etcd clients")
				return factory.Close()
			})
			return nil
		})
	}
}

// WatchConfig 以托管服务的形式监听 prefix 下的变更，每批变更后重载应用配置。
// 监听使用以 Token(clientName) 注册的客户端，配置源本身需通过 config.AddEtcd 添加。
func WatchConfig(clientName, prefix string) core.Option {
	return func(rt *core.Runtime) error {
		return core.WithWorker("etcd-config-watch", func(ctx context.Context) error {
			client, err := di.ResolveToken[*clientv3.Client](rt.Injector, Token(clientName))
			if err != nil {
				return fmt.Errorf("etcd: config watch: %w", err)
			}

			logger := rt.LoggerFactory.CreateLogger("etcd")
			source := &config.EtcdSource{Options: config.EtcdOptions{Client: client, Prefix: prefix}}
			err = source.Watch(ctx, func() {
				if err := rt.Config.Reload(); err != nil {
					logger.Warn("config reload failed", logging.Field{Key: "error", Value: err})
					return
				}
				logger.Info("config reloaded", logging.Field{Key: "prefix", Value: prefix})
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		})(rt)
	}
}
