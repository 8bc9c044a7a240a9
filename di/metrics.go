package di

import (
	"sync"
	"time"

	"github.com/gocrud/inject/logging"
)

// MetricRecord 单个类型在单个注入器上的解析统计
type MetricRecord struct {
	Name            string
	Type            *Type
	Activated       time.Time
	ActivationOwner *Type
	ResolutionCount int
	LastResolution  time.Time
	DependencyCount int
	CreationTime    time.Duration
}

// MetricsProvider 记录注入器的解析统计。禁用时所有更新都是空操作。
type MetricsProvider struct {
	mu      sync.Mutex
	enabled bool
	data    map[*Type]*MetricRecord
	order   []*Type
	now     func() time.Time
}

func newMetricsProvider(enabled bool) *MetricsProvider {
	return &MetricsProvider{
		enabled: enabled,
		data:    make(map[*Type]*MetricRecord),
		now:     time.Now,
	}
}

// Enabled 报告是否记录统计
func (m *MetricsProvider) Enabled() bool {
	return m.enabled
}

// Update 记录一次构造。首次调用创建记录，之后累加解析次数并覆盖构造耗时。
func (m *MetricsProvider) Update(t, owner *Type, cost time.Duration) {
	if !m.enabled {
		return
	}
	if owner == nil {
		owner = t
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.data[t]
	if !ok {
		m.data[t] = &MetricRecord{
			Name:            t.Name(),
			Type:            t,
			Activated:       now,
			ActivationOwner: owner,
			ResolutionCount: 1,
			LastResolution:  now,
			DependencyCount: t.Arity(),
			CreationTime:    cost,
		}
		m.order = append(m.order, t)
		return
	}

	rec.ResolutionCount++
	rec.LastResolution = now
	rec.CreationTime = cost
}

// Touch 记录一次缓存命中，不改变构造耗时
func (m *MetricsProvider) Touch(t *Type) {
	if !m.enabled {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.data[t]
	if !ok {
		// 预置实例第一次被取用
		m.data[t] = &MetricRecord{
			Name:            t.Name(),
			Type:            t,
			Activated:       now,
			ActivationOwner: t,
			ResolutionCount: 1,
			LastResolution:  now,
			DependencyCount: t.Arity(),
		}
		m.order = append(m.order, t)
		return
	}

	rec.ResolutionCount++
	rec.LastResolution = now
}

// MetricsForType 返回类型统计的副本
func (m *MetricsProvider) MetricsForType(t *Type) (MetricRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.data[t]
	if !ok {
		return MetricRecord{}, false
	}
	return *rec, true
}

// Data 按首次激活顺序返回所有统计
func (m *MetricsProvider) Data() []MetricRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MetricRecord, 0, len(m.order))
	for _, t := range m.order {
		out = append(out, *m.data[t])
	}
	return out
}

// Clear 清空统计
func (m *MetricsProvider) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[*Type]*MetricRecord)
	m.order = nil
}

// Dump 将每条统计写为一行结构化日志
func (m *MetricsProvider) Dump(logger logging.Logger) {
	for _, rec := range m.Data() {
		logger.Info("di metrics",
			logging.Field{Key: "type", Value: rec.Name},
			logging.Field{Key: "owner", Value: rec.ActivationOwner.String()},
			logging.Field{Key: "resolutions", Value: rec.ResolutionCount},
			logging.Field{Key: "dependencies", Value: rec.DependencyCount},
			logging.Field{Key: "creation_time", Value: rec.CreationTime},
			logging.Field{Key: "activated", Value: rec.Activated.Format(time.RFC3339Nano)},
			logging.Field{Key: "last_resolution", Value: rec.LastResolution.Format(time.RFC3339Nano)})
	}
}
