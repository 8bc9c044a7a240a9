package di

import (
	"errors"
	"fmt"
	"io"

	"github.com/gocrud/inject/logging"
)

// CreateScope 创建子作用域。
//
// 子作用域继承父节点的配置、日志记录器和共享元数据，但拥有独立的注册表与实例缓存：
// 本地未命中的注册会回退到父链查找，单例实例则在子作用域内重新构造并单独缓存。
func (i *Injector) CreateScope(name string) (*Injector, error) {
	i.mu.Lock()
	if i.destroyed || i.destroying {
		i.mu.Unlock()
		return nil, i.destroyedError()
	}
	child := newInjector(i, name, i.config, i.base, i.tokens)
	i.children[child.id] = child
	i.childOrder = append(i.childOrder, child.id)
	i.mu.Unlock()

	i.log.Debug("scope created",
		logging.Field{Key: "scope", Value: child.id},
		logging.Field{Key: "name", Value: name})
	return child, nil
}

// Children 按创建顺序返回直接子作用域
func (i *Injector) Children() []*Injector {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.childList()
}

func (i *Injector) childList() []*Injector {
	out := make([]*Injector, 0, len(i.childOrder))
	for _, id := range i.childOrder {
		if child, ok := i.children[id]; ok {
			out = append(out, child)
		}
	}
	return out
}

// GetScope 在以本节点为根的子树中广度优先查找作用域，先按 ID 匹配，再按名称匹配
func (i *Injector) GetScope(nameOrID string) (*Injector, bool) {
	nodes := i.subtree()
	for _, node := range nodes {
		if node.id == nameOrID {
			return node, true
		}
	}
	for _, node := range nodes {
		if node.name != "" && node.name == nameOrID {
			return node, true
		}
	}
	return nil, false
}

// subtree 广度优先返回未销毁的节点
func (i *Injector) subtree() []*Injector {
	var out []*Injector
	queue := []*Injector{i}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		node.mu.RLock()
		if node.destroyed {
			node.mu.RUnlock()
			continue
		}
		children := node.childList()
		node.mu.RUnlock()

		out = append(out, node)
		queue = append(queue, children...)
	}
	return out
}

// Destroy 销毁注入器及其所有子作用域。
//
// 先销毁子节点，再清空本节点的缓存并关闭本节点构造的 io.Closer 实例（逆构造顺序），
// 最后标记为已销毁并从父节点摘除。已销毁的节点再次调用返回 ErrDestroyed。
func (i *Injector) Destroy() error {
	if err := i.destroyFrom(nil); err != nil {
		return err
	}
	if i.parent != nil {
		i.parent.detach(i)
	}
	return nil
}

// destroyFrom 由正在销毁的父节点调用时 parent 非空，此时不再回头修改父节点的子节点表
func (i *Injector) destroyFrom(parent *Injector) error {
	// destroying 置位后不再接受新的子作用域，下面拿到的子节点列表即为完整列表
	i.mu.Lock()
	if i.destroyed || i.destroying {
		i.mu.Unlock()
		return i.destroyedError()
	}
	i.destroying = true
	children := i.childList()
	i.mu.Unlock()

	var errs []error
	for _, child := range children {
		if err := child.destroyFrom(i); err != nil && !errors.Is(err, ErrDestroyed) {
			errs = append(errs, err)
		}
	}

	i.mu.Lock()
	closers := i.teardown()
	i.children = make(map[string]*Injector)
	i.childOrder = nil
	i.destroyed = true
	i.mu.Unlock()

	errs = append(errs, closeAll(closers)...)

	fields := []logging.Field{{Key: "children", Value: len(children)}}
	if parent != nil {
		fields = append(fields, logging.Field{Key: "parent", Value: parent.id})
	}
	i.log.Debug("injector destroyed", fields...)

	if len(errs) > 0 {
		return fmt.Errorf("di: destroying %s: %w", i, errors.Join(errs...))
	}
	return nil
}

// teardown 清空本节点状态并返回待关闭的实例，调用方需持有写锁
func (i *Injector) teardown() []io.Closer {
	closers := i.instances.closers()
	i.instances.clear()
	i.registry.clear()
	i.metrics.Clear()
	return closers
}

func (i *Injector) detach(child *Injector) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.children[child.id]; !ok {
		return
	}
	delete(i.children, child.id)
	for idx, id := range i.childOrder {
		if id == child.id {
			i.childOrder = append(i.childOrder[:idx], i.childOrder[idx+1:]...)
			break
		}
	}
}

// Reset 将节点恢复到刚创建时的状态：清空实例缓存、注册表和统计，
// 根节点还会清空共享元数据。子作用域保持不变。
func (i *Injector) Reset() error {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return i.destroyedError()
	}
	closers := i.teardown()
	i.mu.Unlock()

	if i.parent == nil {
		i.tokens.Clear()
	}

	i.log.Debug("injector reset")

	if errs := closeAll(closers); len(errs) > 0 {
		return fmt.Errorf("di: resetting %s: %w", i, errors.Join(errs...))
	}
	return nil
}

func closeAll(closers []io.Closer) []error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
