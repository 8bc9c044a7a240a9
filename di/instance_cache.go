package di

import "io"

type cachedInstance struct {
	value any
	// owned 表示实例由注入器自己构造，销毁时负责关闭
	owned bool
}

// instanceCache 单个注入器节点的实例缓存，从不在节点之间共享。
// 并发保护由所属注入器的锁负责。
type instanceCache struct {
	entries       map[*Type]cachedInstance
	order         []*Type
	instanceCount int
}

func newInstanceCache() *instanceCache {
	return &instanceCache{
		entries: make(map[*Type]cachedInstance),
	}
}

func (c *instanceCache) resolve(t *Type) (any, bool) {
	e, ok := c.entries[t]
	return e.value, ok
}

func (c *instanceCache) update(t *Type, value any, owned bool) {
	if _, exists := c.entries[t]; !exists {
		c.order = append(c.order, t)
		c.instanceCount++
	}
	c.entries[t] = cachedInstance{value: value, owned: owned}
}

// closers 按构造的逆序返回自己构造且实现了 io.Closer 的实例
func (c *instanceCache) closers() []io.Closer {
	var out []io.Closer
	for i := len(c.order) - 1; i >= 0; i-- {
		e := c.entries[c.order[i]]
		if !e.owned {
			continue
		}
		if closer, ok := e.value.(io.Closer); ok {
			out = append(out, closer)
		}
	}
	return out
}

func (c *instanceCache) clear() {
	c.entries = make(map[*Type]cachedInstance)
	c.order = nil
	c.instanceCount = 0
}

func (c *instanceCache) count() int {
	return c.instanceCount
}
