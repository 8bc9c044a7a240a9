package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// ErrKeyNotFound 配置键不存在
var ErrKeyNotFound = errors.New("config: key not found")

// Configuration 配置接口（类似于 .NET Core IConfiguration）
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体，键不存在时返回 ErrKeyNotFound
	Bind(key string, target any) error
	// GetAll 获取所有配置
	GetAll() map[string]any
	// Reload 重新加载所有配置源并通知监听者
	Reload() error
	// OnReload 注册重载回调
	OnReload(fn func())
}

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{
		sources: make([]ConfigurationSource, 0),
	}
}

// Add 添加配置源，后添加的覆盖先添加的
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&JsonFileSource{Path: path, Optional: isOptional})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddDotEnv 添加 .env 文件配置源
func (b *ConfigurationBuilder) AddDotEnv(path string, prefix string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&DotEnvSource{Path: path, Prefix: prefix, Optional: isOptional})
}

// AddEnvironmentVariables 添加环境变量配置源
func (b *ConfigurationBuilder) AddEnvironmentVariables(prefix string) *ConfigurationBuilder {
	return b.Add(&EnvironmentVariableSource{Prefix: prefix})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// AddEtcd 添加 etcd 配置源
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	return b.Add(&EtcdSource{Options: opts.withDefaults()})
}

// Build 加载所有配置源并构建配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	b.mu.RLock()
	sources := append([]ConfigurationSource(nil), b.sources...)
	b.mu.RUnlock()

	cfg := &configuration{
		sources: sources,
		store:   NewValueStore(),
		paths:   globalPathCache,
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configuration 配置实现。数据保存在 ValueStore 中，读取无锁，重载时整体替换。
type configuration struct {
	sources []ConfigurationSource
	store   *ValueStore
	paths   *PathCache

	mu        sync.Mutex
	listeners []func()
}

func (c *configuration) load() error {
	data := make(map[string]any)
	for _, source := range c.sources {
		loaded, err := source.Load()
		if err != nil {
			return fmt.Errorf("config: failed to load source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}
	c.store.Store(data)
	return nil
}

// Reload 重新加载配置源。失败时保留旧数据。
func (c *configuration) Reload() error {
	if err := c.load(); err != nil {
		return err
	}

	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

func (c *configuration) OnReload(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	value := c.lookup(key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	value := c.lookup(key)
	if value == nil {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("config: cannot convert %v to int", value)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	value := c.lookup(key)
	if value == nil {
		return false, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("config: cannot convert %v to bool", value)
	}
}

// GetSection 获取配置节。返回的配置节是当前数据的快照，不参与重载。
func (c *configuration) GetSection(key string) Configuration {
	data := make(map[string]any)
	if m, ok := c.lookup(key).(map[string]any); ok {
		mergeMaps(data, m)
	}
	section := &configuration{
		sources: []ConfigurationSource{&InMemorySource{Data: data}},
		store:   NewValueStore(),
		paths:   c.paths,
	}
	section.store.Store(data)
	return section
}

// Bind 使用 JSON 序列化/反序列化把配置节绑定到结构体
func (c *configuration) Bind(key string, target any) error {
	data := c.lookup(key)
	if data == nil {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("config: failed to marshal section %s: %w", key, err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("config: failed to bind section %s: %w", key, err)
	}
	return nil
}

// GetAll 获取所有配置的副本
func (c *configuration) GetAll() map[string]any {
	result := make(map[string]any)
	mergeMaps(result, c.store.Load())
	return result
}

// lookup 通过路径获取值（支持 "a:b:c" 或 "a.b.c"）
func (c *configuration) lookup(path string) any {
	data := c.store.Load()
	if path == "" {
		return data
	}

	current := any(data)
	for _, part := range c.paths.GetPathSegments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 深度合并 src 到 dst，嵌套 map 会被复制
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		if !srcIsMap {
			dst[k] = v
			continue
		}
		dstMap, ok := dst[k].(map[string]any)
		if !ok {
			dstMap = make(map[string]any, len(srcMap))
			dst[k] = dstMap
		}
		mergeMaps(dstMap, srcMap)
	}
}
