package etcd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// ClientFactory 按名称持有 etcd 客户端
type ClientFactory struct {
	clients map[string]*clientv3.Client
	mu      sync.RWMutex
}

// NewClientFactory 创建客户端工厂
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		clients: make(map[string]*clientv3.Client),
	}
}

// Register 创建并保存客户端
func (f *ClientFactory) Register(opts ClientOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[opts.Name]; exists {
		return fmt.Errorf("etcd client '%s' already registered", opts.Name)
	}

	config := clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	}
	if opts.Username != "" {
		config.Username = opts.Username
		config.Password = opts.Password
	}
	if opts.AutoSyncInterval > 0 {
		config.AutoSyncInterval = opts.AutoSyncInterval
	}
	if opts.MaxCallSendMsgSize > 0 {
		config.MaxCallSendMsgSize = opts.MaxCallSendMsgSize
	}
	if opts.MaxCallRecvMsgSize > 0 {
		config.MaxCallRecvMsgSize = opts.MaxCallRecvMsgSize
	}

	client, err := clientv3.New(config)
	if err != nil {
		return fmt.Errorf("failed to create etcd client: %w", err)
	}

	f.clients[opts.Name] = client
	return nil
}

// Get 获取指定名称的客户端
func (f *ClientFactory) Get(name string) (*clientv3.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists {
		return nil, fmt.Errorf("etcd client '%s' not found", name)
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
func (f *ClientFactory) Each(fn func(name string, client *clientv3.Client)) {
	for _, name := range f.Names() {
		if client, err := f.Get(name); err == nil {
			fn(name, client)
		}
	}
}

// Ping 向每个客户端的第一个端点请求状态
func (f *ClientFactory) Ping(ctx context.Context) error {
	var errs []error
	f.Each(func(name string, client *clientv3.Client) {
		endpoints := client.Endpoints()
		if len(endpoints) == 0 {
			return
		}
		if _, err := client.Status(ctx, endpoints[0]); err != nil {
			errs = append(errs, fmt.Errorf("etcd client '%s': %w", name, err))
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
			errs = append(errs, fmt.Errorf("failed to close etcd client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*clientv3.Client)
	return errors.Join(errs...)
}
