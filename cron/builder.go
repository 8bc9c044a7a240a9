package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/robfig/cron/v3"
)

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDefinition
	names            map[string]bool
	errors           []error
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{
		location: "UTC",
		jobs:     make([]jobDefinition, 0),
		names:    make(map[string]bool),
	}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddFunc 添加简单任务（无依赖注入）
func (b *Builder) AddFunc(spec, name string, fn func(ctx context.Context) error) *Builder {
	return b.add(jobDefinition{spec: spec, name: name, fn: fn})
}

// AddJob 添加带依赖注入的任务。每次执行都会在新的子作用域中解析 job，
// 其实例必须实现 Job，执行结束后子作用域被销毁。
//
// 示例：
//
//	syncJob := di.NewType("SyncJob", newSyncJob, repoType)
//	builder.AddJob("0 */5 * * * *", "sync-data", syncJob)
func (b *Builder) AddJob(spec, name string, job *di.Type) *Builder {
	return b.add(jobDefinition{spec: spec, name: name, job: job})
}

func (b *Builder) add(def jobDefinition) *Builder {
	if b.names[def.name] {
		b.errors = append(b.errors, fmt.Errorf("cron job '%s' already configured", def.name))
		return b
	}
	if def.job == nil && def.fn == nil {
		b.errors = append(b.errors, fmt.Errorf("cron job '%s' has no handler", def.name))
		return b
	}
	b.names[def.name] = true
	b.jobs = append(b.jobs, def)
	return b
}

func (b *Builder) parser() cron.Parser {
	if b.enableSeconds {
		return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	}
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// build 校验所有任务的表达式并创建服务
func (b *Builder) build(inj *di.Injector, logger logging.Logger) (*Service, error) {
	errs := append([]error(nil), b.errors...)

	parser := b.parser()
	for _, def := range b.jobs {
		if _, err := parser.Parse(def.spec); err != nil {
			errs = append(errs, fmt.Errorf("cron job '%s': invalid spec %q: %w", def.name, def.spec, err))
		}
	}

	location, err := time.LoadLocation(b.location)
	if err != nil {
		errs = append(errs, fmt.Errorf("cron: invalid location %q: %w", b.location, err))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cronOpts := []cron.Option{
		cron.WithParser(parser),
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if b.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}

	return newService(inj, logger, cron.New(cronOpts...), b.jobs), nil
}
