package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
	"github.com/robfig/cron/v3"
)

// Job 定时任务接口。通过 AddJob 注册的类型，其实例必须实现该接口。
type Job interface {
	Run(ctx context.Context) error
}

// jobDefinition 任务定义
type jobDefinition struct {
	spec string
	name string
	job  *di.Type
	fn   func(ctx context.Context) error
}

// EntryInfo 已调度任务的信息
type EntryInfo struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

// Service Cron 定时任务托管服务。
// Start 阻塞直到 ctx 结束或 Stop 被调用，期间由 cron 调度器触发任务。
type Service struct {
	*hosting.BackgroundService

	cron     *cron.Cron
	injector *di.Injector
	logger   logging.Logger

	mu      sync.RWMutex
	defs    map[string]jobDefinition
	order   []string
	entries map[string]cron.EntryID
	runCtx  context.Context
}

func newService(inj *di.Injector, logger logging.Logger, c *cron.Cron, jobs []jobDefinition) *Service {
	s := &Service{
		BackgroundService: hosting.NewBackgroundService("cron", logger),
		cron:              c,
		injector:          inj,
		logger:            logger,
		defs:              make(map[string]jobDefinition, len(jobs)),
		entries:           make(map[string]cron.EntryID, len(jobs)),
		runCtx:            context.Background(),
	}
	for _, def := range jobs {
		s.defs[def.name] = def
		s.order = append(s.order, def.name)
	}
	return s
}

// Start 实现 HostedService.Start
func (s *Service) Start(ctx context.Context) error {
	defer s.Done()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.runCtx = runCtx
	for _, name := range s.order {
		def := s.defs[name]
		id, err := s.cron.AddFunc(def.spec, func() {
			if err := s.execute(s.context(), def); err != nil {
				s.logger.Error("cron job failed",
					logging.Field{Key: "job", Value: def.name},
					logging.Field{Key: "error", Value: err})
			}
		})
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to add cron job '%s': %w", def.name, err)
		}
		s.entries[name] = id
		s.logger.Debug("cron job registered",
			logging.Field{Key: "job", Value: def.name},
			logging.Field{Key: "spec", Value: def.spec})
	}
	s.mu.Unlock()

	s.logger.Info("cron service starting", logging.Field{Key: "jobs", Value: len(s.order)})
	s.cron.Start()

	select {
	case <-s.StopChan():
	case <-ctx.Done():
	}

	cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("cron service stopped")
	return nil
}

func (s *Service) context() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runCtx
}

// RunNow 立即同步执行指定任务一次，不影响调度
func (s *Service) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	def, ok := s.defs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("cron job '%s' not found", name)
	}
	return s.execute(ctx, def)
}

// execute 执行一次任务。依赖注入任务在独立的子作用域中解析，执行结束后销毁该作用域。
func (s *Service) execute(ctx context.Context, def jobDefinition) (err error) {
	start := time.Now()
	s.logger.Debug("cron job started", logging.Field{Key: "job", Value: def.name})
	defer func() {
		s.logger.Debug("cron job completed",
			logging.Field{Key: "job", Value: def.name},
			logging.Field{Key: "duration", Value: time.Since(start).String()})
	}()

	if def.fn != nil {
		return def.fn(ctx)
	}

	scope, err := s.injector.CreateScope("cron:" + def.name)
	if err != nil {
		return fmt.Errorf("cron job '%s': %w", def.name, err)
	}
	defer func() {
		if derr := scope.Destroy(); derr != nil {
			s.logger.Warn("failed to destroy cron job scope",
				logging.Field{Key: "job", Value: def.name},
				logging.Field{Key: "error", Value: derr})
		}
	}()

	v, err := scope.Get(def.job)
	if err != nil {
		return fmt.Errorf("cron job '%s': %w", def.name, err)
	}
	job, ok := v.(Job)
	if !ok {
		return fmt.Errorf("cron job '%s': %T does not implement cron.Job", def.name, v)
	}
	return job.Run(ctx)
}

// Entries 返回已调度任务的信息，按名称排序。Start 之前返回空。
func (s *Service) Entries() []EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]EntryInfo, 0, len(s.entries))
	for name, id := range s.entries {
		entry := s.cron.Entry(id)
		out = append(out, EntryInfo{
			Name: name,
			Spec: s.defs[name].spec,
			Next: entry.Next,
			Prev: entry.Prev,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprint(keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
