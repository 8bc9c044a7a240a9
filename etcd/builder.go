package etcd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/logging"
)

// Builder etcd 客户端配置构建器
type Builder struct {
	configs map[string]ClientOptions
	order   []string
	errors  []error
	ping    bool
}

// NewBuilder 创建 etcd 构建器
func NewBuilder() *Builder {
	return &Builder{
		configs: make(map[string]ClientOptions),
		errors:  make([]error, 0),
	}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	if _, exists := b.configs[name]; exists {
		b.errors = append(b.errors, fmt.Errorf("etcd client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid etcd configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	b.order = append(b.order, name)
	return b
}

// AddFromConfig 把配置节下的每个子节作为一个客户端添加
//
// 示例 (YAML)：
//
//	etcd:
//	  default:
//	    endpoints: ["localhost:2379"]
func (b *Builder) AddFromConfig(cfg config.Configuration, section string) *Builder {
	names := make([]string, 0)
	for name := range cfg.GetSection(section).GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var bindErr error
		b.AddClient(name, func(o *ClientOptions) {
			bindErr = cfg.Bind(section+":"+name, o)
			o.Name = name
		})
		if bindErr != nil {
			b.errors = append(b.errors, fmt.Errorf("etcd client '%s': %w", name, bindErr))
		}
	}
	return b
}

// Build 构建 etcd 客户端工厂，没有任何配置时返回 nil
func (b *Builder) Build(logger logging.Logger) (*ClientFactory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("etcd configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewClientFactory()
	for _, name := range b.order {
		opts := b.configs[name]
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register etcd client '%s': %w", name, err)
		}

		logger.Info("etcd client registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "endpoints", Value: fmt.Sprintf("%v", opts.Endpoints)})
	}
	return factory, nil
}
