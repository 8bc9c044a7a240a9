package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ClientFactory 按名称持有 Redis 客户端
type ClientFactory struct {
	clients map[string]*redis.Client
	mu      sync.RWMutex
}

// NewClientFactory 创建客户端工厂
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		clients: make(map[string]*redis.Client),
	}
}

// Register 创建并保存客户端。go-redis 按需建立连接，这里不做连通性检查。
func (f *ClientFactory) Register(opts ClientOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[opts.Name]; exists {
		return fmt.Errorf("redis client '%s' already registered", opts.Name)
	}

	f.clients[opts.Name] = redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		MaxRetries:   opts.MaxRetries,
	})
	return nil
}

// Get 获取指定名称的客户端
func (f *ClientFactory) Get(name string) (*redis.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists {
		return nil, fmt.Errorf("redis client '%s' not found", name)
	}
	return client, nil
}

// Names 返回按名称排序的客户端列表
func (f *ClientFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.clients))
	for name := range f.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each 按名称顺序遍历所有客户端
func (f *ClientFactory) Each(fn func(name string, client *redis.Client)) {
	for _, name := range f.Names() {
		if client, err := f.Get(name); err == nil {
			fn(name, client)
		}
	}
}

// Ping 检查所有客户端的连通性
func (f *ClientFactory) Ping(ctx context.Context) error {
	var errs []error
	f.Each(func(name string, client *redis.Client) {
		if err := client.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis client '%s': %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// Close 关闭所有客户端
func (f *ClientFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*redis.Client)
	return errors.Join(errs...)
}
