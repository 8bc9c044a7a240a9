package di

import (
	"errors"
	"fmt"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/logging"
)

// DefaultMaxTreeDepth 默认最大解析深度
const DefaultMaxTreeDepth = 64

// ExternalResolutionStrategy 外部解析策略，配置后完全接管按类型的解析
type ExternalResolutionStrategy struct {
	// Resolver 返回 t 的实例。locals 为调用方通过 WithParam 给出的显式参数。
	Resolver func(t *Type, inj *Injector, locals map[int]any) (any, error)
	// CacheSyncing 为 true 时把 Resolver 的结果写入本地实例缓存
	CacheSyncing bool
}

// Configuration 注入器配置。子作用域继承父节点的配置。
type Configuration struct {
	MaxTreeDepth          int  `json:"maxTreeDepth" yaml:"maxTreeDepth"`
	AllowDuplicateTokens  bool `json:"allowDuplicateTokens" yaml:"allowDuplicateTokens"`
	TrackMetrics          bool `json:"trackMetrics" yaml:"trackMetrics"`
	AllowUnresolvedParams bool `json:"allowUnresolvedParams" yaml:"allowUnresolvedParams"`

	ExternalResolution *ExternalResolutionStrategy `json:"-" yaml:"-"`
}

// DefaultConfiguration 返回默认配置
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxTreeDepth:         DefaultMaxTreeDepth,
		AllowDuplicateTokens: true,
		TrackMetrics:         true,
	}
}

// Validate 检查配置是否可用
func (c Configuration) Validate() error {
	if c.MaxTreeDepth <= 0 {
		return fmt.Errorf("di: maxTreeDepth must be positive, got %d", c.MaxTreeDepth)
	}
	if c.ExternalResolution != nil && c.ExternalResolution.Resolver == nil {
		return errors.New("di: external resolution strategy needs a resolver")
	}
	return nil
}

// LoadConfiguration 从配置节读取注入器配置，缺失的键保留默认值
//
// 示例 (YAML)：
//
//	di:
//	  maxTreeDepth: 32
//	  allowDuplicateTokens: false
//	  trackMetrics: true
func LoadConfiguration(cfg config.Configuration, section string) (Configuration, error) {
	out := DefaultConfiguration()
	if cfg == nil {
		return out, nil
	}

	if err := cfg.Bind(section, &out); err != nil && !errors.Is(err, config.ErrKeyNotFound) {
		return out, fmt.Errorf("di: failed to bind configuration section %q: %w", section, err)
	}

	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// Option 配置根注入器
type Option func(*settings)

type settings struct {
	name   string
	config Configuration
	logger logging.Logger
	tokens *TokenCache
}

// WithName 设置注入器名称
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithConfiguration 整体替换配置
func WithConfiguration(cfg Configuration) Option {
	return func(s *settings) {
		s.config = cfg
	}
}

// WithMaxTreeDepth 设置最大解析深度
func WithMaxTreeDepth(depth int) Option {
	return func(s *settings) {
		s.config.MaxTreeDepth = depth
	}
}

// WithDuplicateTokens 设置是否允许多个类型注册同一令牌
func WithDuplicateTokens(allow bool) Option {
	return func(s *settings) {
		s.config.AllowDuplicateTokens = allow
	}
}

// WithMetrics 开启或关闭解析统计
func WithMetrics(enabled bool) Option {
	return func(s *settings) {
		s.config.TrackMetrics = enabled
	}
}

// WithUnresolvedParams 允许无法解析的参数以 nil 注入
func WithUnresolvedParams(allow bool) Option {
	return func(s *settings) {
		s.config.AllowUnresolvedParams = allow
	}
}

// WithExternalResolution 设置外部解析策略
func WithExternalResolution(strategy ExternalResolutionStrategy) Option {
	return func(s *settings) {
		s.config.ExternalResolution = &strategy
	}
}

// WithLogger 设置日志记录器，默认不输出
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithTokenCache 使用给定的元数据存储，多个根注入器可以共享同一份元数据
func WithTokenCache(cache *TokenCache) Option {
	return func(s *settings) {
		s.tokens = cache
	}
}

// ResolveOption 配置单次解析
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	params map[int]any
}

// WithParam 为槽位 index 提供显式参数，优先于任何绑定
func WithParam(index int, value any) ResolveOption {
	return func(o *resolveOptions) {
		if o.params == nil {
			o.params = make(map[int]any)
		}
		o.params[index] = value
	}
}

// WithParams 批量提供显式参数
func WithParams(params map[int]any) ResolveOption {
	return func(o *resolveOptions) {
		for index, value := range params {
			WithParam(index, value)(o)
		}
	}
}

func newResolveOptions(opts []ResolveOption) resolveOptions {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
