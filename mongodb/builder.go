package mongodb

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/logging"
)

// Builder MongoDB 配置构建器
type Builder struct {
	configs map[string]Options
	order   []string
	errors  []error
	ping    bool
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{
		configs: make(map[string]Options),
		errors:  make([]error, 0),
	}
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name string, uri string, configure func(*Options)) *Builder {
	if _, exists := b.configs[name]; exists {
		b.errors = append(b.errors, fmt.Errorf("mongo client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err))
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
//	mongodb:
//	  default:
//	    uri: mongodb://localhost:27017
//	    database: app
func (b *Builder) AddFromConfig(cfg config.Configuration, section string) *Builder {
	names := make([]string, 0)
	for name := range cfg.GetSection(section).GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var bindErr error
		b.Add(name, "", func(o *Options) {
			bindErr = cfg.Bind(section+":"+name, o)
			o.Name = name
		})
		if bindErr != nil {
			b.errors = append(b.errors, fmt.Errorf("mongo client '%s': %w", name, bindErr))
		}
	}
	return b
}

// Build 构建 MongoDB 工厂，没有任何配置时返回 nil
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("mongo configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, name := range b.order {
		opts := b.configs[name]
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register mongo client '%s': %w", name, err)
		}

		logger.Info("mongo client registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "database", Value: opts.Database})
	}
	return factory, nil
}
