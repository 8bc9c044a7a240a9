package di

import (
	"fmt"
	"sort"
	"sync"
)

type slotKey struct {
	owner *Type
	index int
}

// orderedType 带注册序号的类型。序号在一棵注入器树内单调递增，
// 注册表与 TokenCache 共用同一个计数器。
type orderedType struct {
	t   *Type
	seq int
}

// mergeOrdered 合并多个来源的记录并按序号排序。
// 同一类型出现多次时，latest 为 true 保留最大序号，否则保留最小序号。
func mergeOrdered(latest bool, sources ...[]orderedType) []*Type {
	seqs := make(map[*Type]int)
	for _, entries := range sources {
		for _, e := range entries {
			prev, ok := seqs[e.t]
			if !ok || (latest && e.seq > prev) || (!latest && e.seq < prev) {
				seqs[e.t] = e.seq
			}
		}
	}
	out := make([]*Type, 0, len(seqs))
	for t := range seqs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return seqs[out[i]] < seqs[out[j]] })
	return out
}

func removeOrdered(list []orderedType, t *Type) []orderedType {
	out := list[:0:0]
	for _, e := range list {
		if e.t != t {
			out = append(out, e)
		}
	}
	return out
}

func typesOf(entries []orderedType) []*Type {
	out := make([]*Type, len(entries))
	for idx, e := range entries {
		out[idx] = e.t
	}
	return out
}

type storedBinding struct {
	binding Binding
	seq     int
}

// TokenCache 绑定元数据存储。
//
// 记录每个类型的参数绑定、类型满足的令牌以及策略组成员，不包含任何解析逻辑。
// 一棵注入器树共享一个 TokenCache：根注入器创建它（或通过 WithTokenCache 注入），
// 子作用域沿用根的实例，只有显式调用 Clear 或根注入器 Reset 时才会清空。
type TokenCache struct {
	mu sync.RWMutex

	typeTokens map[*Type][]Token
	tokenTypes map[Token][]orderedType
	bindings   map[slotKey]storedBinding
	strategies map[string][]orderedType
	seq        int
}

// NewTokenCache 创建空的元数据存储
func NewTokenCache() *TokenCache {
	return &TokenCache{
		typeTokens: make(map[*Type][]Token),
		tokenTypes: make(map[Token][]orderedType),
		bindings:   make(map[slotKey]storedBinding),
		strategies: make(map[string][]orderedType),
	}
}

// next 分配下一个注册序号
func (c *TokenCache) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Register 记录一条元数据。
// 同一槽位只保留一个绑定，后注册的覆盖先注册的。
func (c *TokenCache) Register(meta Metadata) error {
	switch m := meta.(type) {
	case Binding:
		if err := m.validate(); err != nil {
			return err
		}
		c.mu.Lock()
		c.seq++
		c.bindings[slotKey{owner: m.Owner, index: m.Index}] = storedBinding{binding: m, seq: c.seq}
		c.mu.Unlock()
	case TypeTokenMeta:
		if m.Type == nil || m.Token == nil {
			return fmt.Errorf("%w: token metadata needs a type and a token", ErrInvalidType)
		}
		c.mu.Lock()
		c.addToken(m.Type, m.Token)
		c.mu.Unlock()
	case TypeStrategyMeta:
		if m.Type == nil || m.Key == "" {
			return fmt.Errorf("%w: strategy metadata needs a type and a key", ErrInvalidType)
		}
		c.mu.Lock()
		c.addStrategy(m.Type, m.Key)
		c.mu.Unlock()
	default:
		return fmt.Errorf("%w: unsupported metadata %T", ErrInvalidType, meta)
	}
	return nil
}

// MustRegister 与 Register 相同，出错时 panic
func (c *TokenCache) MustRegister(metas ...Metadata) {
	for _, meta := range metas {
		if err := c.Register(meta); err != nil {
			panic(err)
		}
	}
}

func (c *TokenCache) addToken(t *Type, token Token) {
	c.typeTokens[t] = appendUniqueToken(c.typeTokens[t], token)
	// 重复注册时移到末尾并取新序号，使"最后注册者胜出"成立
	c.seq++
	c.tokenTypes[token] = append(removeOrdered(c.tokenTypes[token], t), orderedType{t: t, seq: c.seq})
}

// addStrategy 策略组成员保持首次加入时的位置
func (c *TokenCache) addStrategy(t *Type, key string) {
	for _, e := range c.strategies[key] {
		if e.t == t {
			return
		}
	}
	c.seq++
	c.strategies[key] = append(c.strategies[key], orderedType{t: t, seq: c.seq})
}

// Binding 返回槽位 (owner, index) 的绑定
func (c *TokenCache) Binding(owner *Type, index int) (Binding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sb, ok := c.bindings[slotKey{owner: owner, index: index}]
	return sb.binding, ok
}

// Bindings 返回 owner 上指定种类的所有绑定，按槽位排序。没有该种类绑定的槽位不出现在结果中。
func (c *TokenCache) Bindings(owner *Type, kind Kind) []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Binding
	for key, sb := range c.bindings {
		if key.owner == owner && sb.binding.Kind == kind {
			out = append(out, sb.binding)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// TokensOf 返回类型满足的所有令牌
func (c *TokenCache) TokensOf(t *Type) []Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Token(nil), c.typeTokens[t]...)
}

// TypesFor 返回注册在令牌下的所有类型，按注册顺序
func (c *TokenCache) TypesFor(token Token) []*Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return typesOf(c.tokenTypes[token])
}

func (c *TokenCache) tokenEntries(token Token) []orderedType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]orderedType(nil), c.tokenTypes[token]...)
}

// TypeFor 返回最近注册到令牌的类型
func (c *TokenCache) TypeFor(token Token) (*Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := c.tokenTypes[token]
	if len(entries) == 0 {
		return nil, false
	}
	return entries[len(entries)-1].t, true
}

func (c *TokenCache) latest(token Token) (orderedType, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := c.tokenTypes[token]
	if len(entries) == 0 {
		return orderedType{}, false
	}
	return entries[len(entries)-1], true
}

// StrategyContributors 返回策略组 key 的成员类型，按注册顺序
func (c *TokenCache) StrategyContributors(key string) []*Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return typesOf(c.strategies[key])
}

func (c *TokenCache) strategyEntries(key string) []orderedType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]orderedType(nil), c.strategies[key]...)
}

// isMember 报告类型是否通过元数据声明过令牌或策略组
func (c *TokenCache) isMember(t *Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.typeTokens[t]) > 0 {
		return true
	}
	for _, entries := range c.strategies {
		for _, e := range entries {
			if e.t == t {
				return true
			}
		}
	}
	return false
}

// StrategyConsumers 返回声明了策略组 key 依赖的类型，按首次声明顺序
func (c *TokenCache) StrategyConsumers(key string) []*Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	first := make(map[*Type]int)
	for k, sb := range c.bindings {
		if sb.binding.Kind != KindStrategy || sb.binding.Strategy != key {
			continue
		}
		if seq, ok := first[k.owner]; !ok || sb.seq < seq {
			first[k.owner] = sb.seq
		}
	}

	out := make([]*Type, 0, len(first))
	for t := range first {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return first[out[i]] < first[out[j]] })
	return out
}

// Clear 清空所有元数据。序号不归零，子作用域注册表中已有的序号仍然可比。
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.typeTokens = make(map[*Type][]Token)
	c.tokenTypes = make(map[Token][]orderedType)
	c.bindings = make(map[slotKey]storedBinding)
	c.strategies = make(map[string][]orderedType)
}

func appendUniqueToken(list []Token, token Token) []Token {
	for _, existing := range list {
		if existing == token {
			return list
		}
	}
	return append(list, token)
}
