package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// IsNotFound 报告错误是否表示配置键不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// OptionsCache 配置缓存，绑定一个配置节并在配置重载后自动刷新
type OptionsCache[T any] struct {
	config  Configuration
	section string
	current T
	mu      sync.RWMutex
}

// NewOptionsCache 创建配置缓存，配置节不存在时使用零值
func NewOptionsCache[T any](config Configuration, section string) *OptionsCache[T] {
	cache := &OptionsCache[T]{
		config:  config,
		section: section,
	}
	_ = cache.reload()

	config.OnReload(func() {
		_ = cache.reload()
	})
	return cache
}

// reload 重新绑定配置节，失败时保留旧值
func (c *OptionsCache[T]) reload() error {
	var value T
	if err := c.config.Bind(c.section, &value); err != nil {
		return fmt.Errorf("config: failed to bind section %s: %w", c.section, err)
	}

	c.mu.Lock()
	c.current = value
	c.mu.Unlock()
	return nil
}

// Get 获取当前配置值
func (c *OptionsCache[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Snapshot 创建当前配置的深拷贝
func (c *OptionsCache[T]) Snapshot() T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var snapshot T
	data, err := json.Marshal(c.current)
	if err != nil {
		return c.current
	}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return c.current
	}
	return snapshot
}

// Monitor 总是返回最新配置值的只读视图
type Monitor[T any] interface {
	Value() T
}

type monitor[T any] struct {
	cache *OptionsCache[T]
}

func (m *monitor[T]) Value() T {
	return m.cache.Get()
}

// NewMonitor 创建配置监听视图
func NewMonitor[T any](cache *OptionsCache[T]) Monitor[T] {
	return &monitor[T]{cache: cache}
}
