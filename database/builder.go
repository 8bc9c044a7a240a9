package database

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// SlowQueryThreshold 超过该耗时的查询以 WARN 级别记录
const SlowQueryThreshold = 200 * time.Millisecond

// Builder 数据库配置构建器
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

// Add 添加数据库配置
// name: 实例名称
// dialector: GORM 驱动 (e.g. sqlite.Open(dsn))，为 nil 时按 Options.Driver 创建
// configure: 可选的配置函数
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*Options)) *Builder {
	if _, exists := b.configs[name]; exists {
		b.errors = append(b.errors, fmt.Errorf("database '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.errors = append(b.errors, fmt.Errorf("invalid configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	b.order = append(b.order, name)
	return b
}

// AddFromConfig 把配置节下的每个子节作为一个数据库添加
//
// 示例 (YAML)：
//
//	database:
//	  default:
//	    driver: sqlite
//	    dsn: app.db
func (b *Builder) AddFromConfig(cfg config.Configuration, section string) *Builder {
	names := make([]string, 0)
	for name := range cfg.GetSection(section).GetAll() {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var bindErr error
		b.Add(name, nil, func(o *Options) {
			bindErr = cfg.Bind(section+":"+name, o)
			o.Name = name
		})
		if bindErr != nil {
			b.errors = append(b.errors, fmt.Errorf("database '%s': %w", name, bindErr))
		}
	}
	return b
}

// Build 构建数据库工厂，没有任何配置时返回 nil
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("database configuration errors: %w", errors.Join(b.errors...))
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, name := range b.order {
		opts := b.configs[name]
		if opts.GormConfig == nil {
			opts.GormConfig = &gorm.Config{
				Logger: newGormLogger(logger.WithFields(logging.Field{Key: "database", Value: name}), SlowQueryThreshold),
			}
		}
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to register database '%s': %w", name, err)
		}

		logger.Info("database registered",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "dialector", Value: opts.Dialector.Name()})
	}
	return factory, nil
}
