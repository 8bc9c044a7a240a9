package di

import (
	"fmt"
	"time"

	"github.com/gocrud/inject/logging"
)

// Get 解析类型 t 的实例。
//
// 解析顺序：
//  1. 已销毁的节点返回 ErrDestroyed
//  2. 解析链长度达到 MaxTreeDepth 返回 ErrDepthExceeded
//  3. t 已在解析链中返回 ErrCircularDependency
//  4. 配置了外部解析策略时完全交给它处理
//  5. 命中本地实例缓存（或祖先预置的实例）直接返回
//  6. 逐个解析构造参数：显式参数 > 绑定元数据 > 参数声明的类型
//  7. 调用构造函数并计时
//  8. 非 Multiple 生命周期写入本地实例缓存
//  9. 更新统计
func (i *Injector) Get(t *Type, opts ...ResolveOption) (any, error) {
	return i.get(t, nil, newResolveOptions(opts))
}

// GetToken 解析令牌当前映射的类型
func (i *Injector) GetToken(token Token, opts ...ResolveOption) (any, error) {
	return i.getToken(token, nil, newResolveOptions(opts))
}

// GetOptional 解析类型 t，类型未注册时返回 (nil, nil)。
// 循环依赖、深度超限和构造失败等错误照常返回。
func (i *Injector) GetOptional(t *Type) (any, error) {
	return i.optional(t, nil)
}

// GetOptionalToken 解析令牌，令牌未注册时返回 (nil, nil)
func (i *Injector) GetOptionalToken(token Token) (any, error) {
	return i.optionalToken(token, nil)
}

// GetStrategies 按注册顺序返回策略组 key 的所有成员实例
func (i *Injector) GetStrategies(key string) ([]any, error) {
	return i.strategies(key, nil)
}

// GetFactory 返回类型 t 的工厂句柄，每次调用 Factory.Get 都会重新解析
func (i *Injector) GetFactory(t *Type) *Factory {
	return &Factory{injector: i, target: t}
}

// GetLazy 返回类型 t 的延迟句柄，首次访问时才解析
func (i *Injector) GetLazy(t *Type) *Lazy {
	return newLazy(i, t)
}

func (i *Injector) getToken(token Token, ancestry []*Type, o resolveOptions) (any, error) {
	if err := i.checkActive(); err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("di: %w: nil token", ErrInvalidType)
	}
	t, ok := i.lookupToken(token)
	if !ok {
		return nil, fmt.Errorf("di: %w: %s", ErrUnregisteredToken, token)
	}
	return i.get(t, ancestry, o)
}

func (i *Injector) get(t *Type, ancestry []*Type, o resolveOptions) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("di: %w: nil type", ErrInvalidType)
	}
	if err := i.checkActive(); err != nil {
		return nil, err
	}

	if len(ancestry) >= i.config.MaxTreeDepth {
		return nil, fmt.Errorf("di: %w: %d while resolving %s", ErrDepthExceeded, i.config.MaxTreeDepth, t)
	}
	for _, a := range ancestry {
		if a == t {
			return nil, fmt.Errorf("di: %w: %s", ErrCircularDependency, formatPath(ancestry, t))
		}
	}

	if ext := i.config.ExternalResolution; ext != nil {
		return i.external(ext, t, o)
	}

	i.mu.RLock()
	cached, ok := i.instances.resolve(t)
	i.mu.RUnlock()
	if ok {
		i.metrics.Touch(t)
		return cached, nil
	}

	reg, registered := i.lookupRegistration(t)
	if registered && reg.HasInstance {
		i.metrics.Touch(t)
		return reg.Instance, nil
	}

	if !t.Constructable() {
		return nil, fmt.Errorf("di: %w: %s has no constructor and no registered instance", ErrMissingRegistration, t)
	}

	next := make([]*Type, len(ancestry), len(ancestry)+1)
	copy(next, ancestry)
	next = append(next, t)

	args := make([]any, t.Arity())
	for idx := range args {
		if v, ok := o.params[idx]; ok {
			args[idx] = v
			continue
		}
		v, err := i.resolveSlot(t, idx, next)
		if err != nil {
			return nil, &ResolutionError{Type: t, Index: idx, Err: err}
		}
		args[idx] = v
	}

	start := time.Now()
	instance, err := t.ctor(args)
	cost := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("di: constructing %s: %w", t, err)
	}

	if reg.Lifetime != Multiple {
		i.mu.Lock()
		if i.destroyed {
			i.mu.Unlock()
			return nil, i.destroyedError()
		}
		if existing, ok := i.instances.resolve(t); ok {
			// 并发构造时先写入者胜出
			i.mu.Unlock()
			i.metrics.Touch(t)
			return existing, nil
		}
		i.instances.update(t, instance, true)
		i.mu.Unlock()
	}

	owner := t
	if len(ancestry) > 0 {
		owner = ancestry[0]
	}
	i.metrics.Update(t, owner, cost)

	i.log.Trace("type resolved",
		logging.Field{Key: "type", Value: t.Name()},
		logging.Field{Key: "owner", Value: owner.Name()},
		logging.Field{Key: "depth", Value: len(ancestry)},
		logging.Field{Key: "cost", Value: cost})
	return instance, nil
}

func (i *Injector) external(ext *ExternalResolutionStrategy, t *Type, o resolveOptions) (any, error) {
	if ext.Resolver == nil {
		return nil, fmt.Errorf("di: %w: external resolution strategy has no resolver", ErrInvalidType)
	}
	instance, err := ext.Resolver(t, i, o.params)
	if err != nil {
		return nil, err
	}
	if ext.CacheSyncing {
		i.mu.Lock()
		if !i.destroyed {
			i.instances.update(t, instance, false)
		}
		i.mu.Unlock()
	}
	return instance, nil
}

// resolveSlot 解析 owner 第 idx 个参数槽位
func (i *Injector) resolveSlot(owner *Type, idx int, ancestry []*Type) (any, error) {
	b, ok := i.tokens.Binding(owner, idx)
	if !ok {
		declared := owner.Param(idx)
		if declared == nil {
			if i.config.AllowUnresolvedParams {
				return nil, nil
			}
			return nil, fmt.Errorf("di: %w: no binding and no declared type", ErrMissingRegistration)
		}
		v, err := i.get(declared, ancestry, resolveOptions{})
		if err != nil && i.config.AllowUnresolvedParams && isMissing(err) {
			return nil, nil
		}
		return v, err
	}

	switch b.Kind {
	case KindType:
		return i.get(b.Target, ancestry, resolveOptions{})
	case KindToken:
		return i.getToken(b.Token, ancestry, resolveOptions{})
	case KindFactory:
		return i.GetFactory(b.Target), nil
	case KindLazy:
		return i.GetLazy(b.Target), nil
	case KindOptional:
		if b.Token != nil {
			return i.optionalToken(b.Token, ancestry)
		}
		return i.optional(b.Target, ancestry)
	case KindStrategy:
		return i.strategies(b.Strategy, ancestry)
	default:
		return nil, fmt.Errorf("di: %w: unknown binding kind %d", ErrInvalidType, b.Kind)
	}
}

func (i *Injector) optional(t *Type, ancestry []*Type) (any, error) {
	if err := i.checkActive(); err != nil {
		return nil, err
	}
	if !i.isKnown(t) {
		return nil, nil
	}
	v, err := i.get(t, ancestry, resolveOptions{})
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (i *Injector) optionalToken(token Token, ancestry []*Type) (any, error) {
	v, err := i.getToken(token, ancestry, resolveOptions{})
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// isKnown 报告类型是否在父链上注册过、已在本地缓存、通过元数据声明过令牌或策略组，
// 或可由外部解析策略提供
func (i *Injector) isKnown(t *Type) bool {
	if t == nil {
		return false
	}
	if i.config.ExternalResolution != nil {
		return true
	}
	i.mu.RLock()
	_, cached := i.instances.resolve(t)
	i.mu.RUnlock()
	if cached {
		return true
	}
	if _, registered := i.lookupRegistration(t); registered {
		return true
	}
	return i.tokens.isMember(t)
}

func (i *Injector) strategies(key string, ancestry []*Type) ([]any, error) {
	if err := i.checkActive(); err != nil {
		return nil, err
	}
	types := i.strategyTypes(key)
	out := make([]any, 0, len(types))
	for _, t := range types {
		v, err := i.get(t, ancestry, resolveOptions{})
		if err != nil {
			return nil, fmt.Errorf("di: strategy %q: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// strategyTypes 收集从根到本节点的注册表以及共享元数据中的策略组成员，
// 去重后按首次加入的顺序排列
func (i *Injector) strategyTypes(key string) []*Type {
	sources := [][]orderedType{i.tokens.strategyEntries(key)}
	for _, node := range i.lineage() {
		node.mu.RLock()
		sources = append(sources, node.registry.contributors(key))
		node.mu.RUnlock()
	}
	return mergeOrdered(false, sources...)
}

// StrategyTypes 返回策略组 key 当前可见的成员类型
func (i *Injector) StrategyTypes(key string) []*Type {
	return i.strategyTypes(key)
}
