package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Factory 按名称持有 MongoDB 客户端
type Factory struct {
	clients map[string]*mongo.Client
	opts    map[string]Options
	mu      sync.RWMutex
}

// NewFactory 创建客户端工厂
func NewFactory() *Factory {
	return &Factory{
		clients: make(map[string]*mongo.Client),
		opts:    make(map[string]Options),
	}
}

// Register 创建客户端。驱动在后台建立连接，这里只校验配置。
func (f *Factory) Register(opts Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[opts.Name]; exists {
		return fmt.Errorf("mongo client '%s' already registered", opts.Name)
	}

	clientOpts := options.Client().ApplyURI(opts.Uri)
	if opts.Username != "" || opts.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return fmt.Errorf("failed to create mongo client '%s': %w", opts.Name, err)
	}

	f.clients[opts.Name] = client
	f.opts[opts.Name] = opts
	return nil
}

// Get 获取指定名称的客户端
func (f *Factory) Get(name string) (*mongo.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists {
		return nil, fmt.Errorf("mongo client '%s' not found", name)
	}
	return client, nil
}

// Database 返回客户端配置的默认数据库，未配置时返回 false
func (f *Factory) Database(name string) (*mongo.Database, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, exists := f.clients[name]
	if !exists || f.opts[name].Database == "" {
		return nil, false
	}
	return client.Database(f.opts[name].Database), true
}

// Names 返回按名称排序的客户端列表
func (f *Factory) Names() []string {
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
func (f *Factory) Each(fn func(name string, client *mongo.Client)) {
	for _, name := range f.Names() {
		if client, err := f.Get(name); err == nil {
			fn(name, client)
		}
	}
}

// Ping 检查所有客户端能否连到主节点
func (f *Factory) Ping(ctx context.Context) error {
	var errs []error
	f.Each(func(name string, client *mongo.Client) {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			errs = append(errs, fmt.Errorf("mongo client '%s': %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// Close 断开所有客户端
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for name, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close mongo client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*mongo.Client)
	f.opts = make(map[string]Options)
	return errors.Join(errs...)
}
