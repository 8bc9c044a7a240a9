package di

import (
	"sync"
	"sync/atomic"
)

// Factory 工厂句柄，每次调用 Get 都在绑定的注入器上重新解析目标类型。
// 目标为 Multiple 生命周期时每次得到新实例，配合 WithParam 可实现参数化构造。
type Factory struct {
	injector *Injector
	target   *Type
}

// Type 返回工厂的目标类型
func (f *Factory) Type() *Type {
	return f.target
}

// Get 解析目标类型
func (f *Factory) Get(opts ...ResolveOption) (any, error) {
	return f.injector.Get(f.target, opts...)
}

// Lazy 延迟句柄，首次调用 Value 时解析目标类型，之后返回同一结果（包括错误）
type Lazy struct {
	injector *Injector
	target   *Type

	once     sync.Once
	resolved atomic.Bool
	value    any
	err      error
}

func newLazy(inj *Injector, t *Type) *Lazy {
	return &Lazy{injector: inj, target: t}
}

// Type 返回目标类型
func (l *Lazy) Type() *Type {
	return l.target
}

// Value 返回目标实例
func (l *Lazy) Value() (any, error) {
	l.once.Do(func() {
		l.value, l.err = l.injector.Get(l.target)
		l.resolved.Store(true)
	})
	return l.value, l.err
}

// Resolved 报告 Value 是否已经被调用过
func (l *Lazy) Resolved() bool {
	return l.resolved.Load()
}
