package di

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gocrud/inject/logging"
)

var injectorSeq atomic.Uint64

func nextInjectorID() string {
	return "injector-" + strconv.FormatUint(injectorSeq.Add(1), 10)
}

// Injector 注入器树中的一个节点。
//
// 每个节点拥有自己的注册表、实例缓存和解析统计；子作用域由父节点持有，
// 子节点对父节点的引用只用于回退查找和销毁传播。整棵树共享根节点的 TokenCache。
type Injector struct {
	id     string
	name   string
	parent *Injector
	config Configuration
	base   logging.Logger
	log    logging.Logger
	tokens *TokenCache

	mu         sync.RWMutex
	children   map[string]*Injector
	childOrder []string
	registry   *registry
	instances  *instanceCache
	metrics    *MetricsProvider
	destroying bool
	destroyed  bool
}

// New 创建根注入器
func New(opts ...Option) *Injector {
	s := settings{config: DefaultConfiguration()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.config.MaxTreeDepth <= 0 {
		s.config.MaxTreeDepth = DefaultMaxTreeDepth
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	if s.tokens == nil {
		s.tokens = NewTokenCache()
	}
	return newInjector(nil, s.name, s.config, s.logger, s.tokens)
}

func newInjector(parent *Injector, name string, cfg Configuration, logger logging.Logger, tokens *TokenCache) *Injector {
	id := nextInjectorID()
	return &Injector{
		id:     id,
		name:   name,
		parent: parent,
		config: cfg,
		base:   logger,
		log: logger.WithCategory("di").WithFields(
			logging.Field{Key: "injector", Value: id},
		),
		tokens:    tokens,
		children:  make(map[string]*Injector),
		registry:  newRegistry(),
		instances: newInstanceCache(),
		metrics:   newMetricsProvider(cfg.TrackMetrics),
	}
}

// ID 返回注入器的唯一标识
func (i *Injector) ID() string {
	return i.id
}

// Name 返回注入器名称，可能为空，也可能与其他节点重名
func (i *Injector) Name() string {
	return i.name
}

// Parent 返回父注入器，根注入器返回 nil
func (i *Injector) Parent() *Injector {
	return i.parent
}

// Configuration 返回注入器配置的副本
func (i *Injector) Configuration() Configuration {
	return i.config
}

// Metadata 返回注入器树共享的绑定元数据
func (i *Injector) Metadata() *TokenCache {
	return i.tokens
}

// Metrics 返回本节点的解析统计
func (i *Injector) Metrics() *MetricsProvider {
	return i.metrics
}

// Logger 返回注入器使用的日志记录器
func (i *Injector) Logger() logging.Logger {
	return i.base
}

// IsDestroyed 报告节点是否已销毁
func (i *Injector) IsDestroyed() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.destroyed
}

func (i *Injector) checkActive() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.destroyed {
		return i.destroyedError()
	}
	return nil
}

func (i *Injector) destroyedError() error {
	return fmt.Errorf("di: injector %s: %w", i.id, ErrDestroyed)
}

// Register 在本节点注册类型，重复注册会合并配置
//
// 示例：
//
//	inj.Register(userRepo, di.WithTokens(di.Name("repo")), di.AsSingleton())
//	inj.Register(smsSender, di.WithStrategy("notifier"))
func (i *Injector) Register(t *Type, opts ...RegisterOption) error {
	_, err := i.register(t, newRegistrationConfig(opts), nil, false)
	return err
}

// RegisterInstance 注册类型并直接写入实例缓存，不会调用构造函数。
// 预置实例对子作用域可见，销毁时不会被关闭。
func (i *Injector) RegisterInstance(t *Type, instance any, opts ...RegisterOption) error {
	_, err := i.register(t, newRegistrationConfig(opts), instance, true)
	return err
}

func (i *Injector) register(t *Type, cfg registrationConfig, instance any, seeded bool) (Registration, error) {
	if t == nil {
		return Registration{}, fmt.Errorf("di: %w: nil type", ErrInvalidType)
	}
	if err := i.checkActive(); err != nil {
		return Registration{}, err
	}

	if !i.config.AllowDuplicateTokens && i.parent != nil {
		for _, token := range cfg.tokens {
			if owner, ok := i.parent.lookupToken(token); ok && owner != t {
				return Registration{}, duplicateToken(token, owner)
			}
		}
	}

	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return Registration{}, i.destroyedError()
	}
	// 本节点与共享元数据在写锁内检查，并发注册同一令牌时只有一个成功
	if !i.config.AllowDuplicateTokens {
		for _, token := range cfg.tokens {
			if owner, ok := i.localOwner(token); ok && owner != t {
				i.mu.Unlock()
				return Registration{}, duplicateToken(token, owner)
			}
		}
	}
	reg := i.registry.register(t, cfg, i.tokens.next)
	if seeded {
		reg.Instance = instance
		reg.HasInstance = true
		i.instances.update(t, instance, false)
	}
	out := reg.clone()
	i.mu.Unlock()

	i.log.Debug("type registered",
		logging.Field{Key: "type", Value: t.Name()},
		logging.Field{Key: "lifetime", Value: out.Lifetime.String()},
		logging.Field{Key: "instance", Value: seeded})
	return out, nil
}

// Registrations 返回本节点注册表的快照，不包含祖先节点的注册
func (i *Injector) Registrations() map[*Type]Registration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.registry.snapshot()
}

// lookupRegistration 沿父链查找类型的注册信息，最近的节点优先
func (i *Injector) lookupRegistration(t *Type) (Registration, bool) {
	for node := i; node != nil; node = node.parent {
		node.mu.RLock()
		reg, ok := node.registry.lookup(t)
		var out Registration
		if ok {
			out = reg.clone()
		}
		node.mu.RUnlock()
		if ok {
			return out, true
		}
	}
	return Registration{}, false
}

// lookupToken 返回令牌最近一次注册的类型。
// 本节点、祖先节点和共享元数据中的记录共用一个序号，序号最大者胜出。
func (i *Injector) lookupToken(token Token) (*Type, bool) {
	best, found := i.tokens.latest(token)
	for node := i; node != nil; node = node.parent {
		node.mu.RLock()
		e, ok := node.registry.typeFor(token)
		node.mu.RUnlock()
		if ok && (!found || e.seq > best.seq) {
			best, found = e, true
		}
	}
	return best.t, found
}

// localOwner 在本节点注册表和共享元数据中查找令牌的类型，调用方需持有本节点的锁
func (i *Injector) localOwner(token Token) (*Type, bool) {
	best, found := i.tokens.latest(token)
	if e, ok := i.registry.typeFor(token); ok && (!found || e.seq > best.seq) {
		best, found = e, true
	}
	return best.t, found
}

func duplicateToken(token Token, owner *Type) error {
	return fmt.Errorf("di: %w: %s is already registered by %s", ErrDuplicateToken, token, owner)
}

// TypesForToken 返回在本节点、祖先节点和共享元数据中注册到令牌的所有类型，
// 按注册顺序排列；同一类型重复注册时以最后一次为准
func (i *Injector) TypesForToken(token Token) []*Type {
	sources := [][]orderedType{i.tokens.tokenEntries(token)}
	for _, node := range i.lineage() {
		node.mu.RLock()
		sources = append(sources, node.registry.typesFor(token))
		node.mu.RUnlock()
	}
	return mergeOrdered(true, sources...)
}

// lineage 返回从根到本节点的路径
func (i *Injector) lineage() []*Injector {
	var path []*Injector
	for node := i; node != nil; node = node.parent {
		path = append(path, node)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

func (i *Injector) String() string {
	if i.name == "" {
		return i.id
	}
	return i.name + "(" + i.id + ")"
}
