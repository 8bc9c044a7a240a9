package di

import "sort"

// RegisterOption 配置类型注册
type RegisterOption func(*registrationConfig)

type registrationConfig struct {
	tokens   []Token
	strategy string
	lifetime *Lifetime
}

// WithTokens 声明类型满足的令牌
func WithTokens(tokens ...Token) RegisterOption {
	return func(c *registrationConfig) {
		c.tokens = append(c.tokens, tokens...)
	}
}

// WithStrategy 声明类型属于策略组 key
func WithStrategy(key string) RegisterOption {
	return func(c *registrationConfig) {
		c.strategy = key
	}
}

// WithLifetime 设置类型的生命周期
func WithLifetime(l Lifetime) RegisterOption {
	return func(c *registrationConfig) {
		c.lifetime = &l
	}
}

// AsSingleton 将生命周期设置为 Singleton（默认）
func AsSingleton() RegisterOption {
	return WithLifetime(Singleton)
}

// AsMultiple 将生命周期设置为 Multiple
func AsMultiple() RegisterOption {
	return WithLifetime(Multiple)
}

func newRegistrationConfig(opts []RegisterOption) registrationConfig {
	var cfg registrationConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// registry 注入器节点的注册表。并发保护由所属注入器的锁负责。
//
// 令牌与策略组成员带有从共享 TokenCache 取得的序号，
// 因此注册表与元数据两条路径的先后顺序可以直接比较。
type registry struct {
	entries    map[*Type]*Registration
	tokens     map[Token][]orderedType
	strategies map[string][]orderedType
	seq        int
}

func newRegistry() *registry {
	return &registry{
		entries:    make(map[*Type]*Registration),
		tokens:     make(map[Token][]orderedType),
		strategies: make(map[string][]orderedType),
	}
}

// register 记录或合并类型的注入配置：令牌追加去重，策略与生命周期仅在显式给出时覆盖。
// next 为每条令牌或策略记录分配全树共享的序号。
func (r *registry) register(t *Type, cfg registrationConfig, next func() int) *Registration {
	reg, ok := r.entries[t]
	if !ok {
		r.seq++
		reg = &Registration{Type: t, Lifetime: Singleton, seq: r.seq}
		r.entries[t] = reg
	}

	for _, token := range cfg.tokens {
		reg.Tokens = appendUniqueToken(reg.Tokens, token)
		r.tokens[token] = append(removeOrdered(r.tokens[token], t), orderedType{t: t, seq: next()})
	}

	if cfg.strategy != "" && cfg.strategy != reg.Strategy {
		if reg.Strategy != "" {
			r.strategies[reg.Strategy] = removeOrdered(r.strategies[reg.Strategy], t)
		}
		reg.Strategy = cfg.strategy
		r.strategies[cfg.strategy] = append(r.strategies[cfg.strategy], orderedType{t: t, seq: next()})
	}

	if cfg.lifetime != nil {
		reg.Lifetime = *cfg.lifetime
	}
	return reg
}

func (r *registry) lookup(t *Type) (*Registration, bool) {
	reg, ok := r.entries[t]
	return reg, ok
}

// typeFor 返回本节点最近注册到令牌的类型及其序号
func (r *registry) typeFor(token Token) (orderedType, bool) {
	entries := r.tokens[token]
	if len(entries) == 0 {
		return orderedType{}, false
	}
	return entries[len(entries)-1], true
}

func (r *registry) typesFor(token Token) []orderedType {
	return append([]orderedType(nil), r.tokens[token]...)
}

func (r *registry) contributors(key string) []orderedType {
	return append([]orderedType(nil), r.strategies[key]...)
}

// ordered 按首次注册顺序返回注册信息的副本
func (r *registry) ordered() []Registration {
	out := make([]Registration, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (r *registry) snapshot() map[*Type]Registration {
	out := make(map[*Type]Registration, len(r.entries))
	for t, reg := range r.entries {
		out[t] = reg.clone()
	}
	return out
}

func (r *registry) clear() {
	r.entries = make(map[*Type]*Registration)
	r.tokens = make(map[Token][]orderedType)
	r.strategies = make(map[string][]orderedType)
	r.seq = 0
}
