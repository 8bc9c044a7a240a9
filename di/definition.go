package di

// Constructor 根据已解析的参数列表创建实例。
// args 的长度始终等于类型的参数个数，未能解析的可选槽位为 nil。
type Constructor func(args []any) (any, error)

// Type 可构造类型。
//
// Type 以指针标识：两个同名的 Type 仍然是不同的类型。params 按顺序声明每个
// 构造参数槽位的类型，nil 表示该槽位没有声明类型，只能由绑定元数据或显式参数提供。
type Type struct {
	name   string
	params []*Type
	ctor   Constructor
}

// NewType 创建可构造类型
func NewType(name string, ctor Constructor, params ...*Type) *Type {
	return &Type{
		name:   name,
		params: append([]*Type(nil), params...),
		ctor:   ctor,
	}
}

// Value 声明一个没有构造函数的类型，只能通过 RegisterInstance 提供实例
func Value(name string) *Type {
	return &Type{name: name}
}

// Name 返回类型名称
func (t *Type) Name() string {
	return t.name
}

// Arity 返回构造参数个数
func (t *Type) Arity() int {
	return len(t.params)
}

// Param 返回第 index 个参数槽位声明的类型
func (t *Type) Param(index int) *Type {
	if index < 0 || index >= len(t.params) {
		return nil
	}
	return t.params[index]
}

// Constructable 报告类型是否带有构造函数
func (t *Type) Constructable() bool {
	return t.ctor != nil
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

// Lifetime 控制实例的缓存策略
type Lifetime int

const (
	// Singleton 每个注入器节点缓存一个实例（默认）
	Singleton Lifetime = iota
	// Multiple 每次解析都创建新实例，不写入实例缓存
	Multiple
)

// String 返回生命周期的名称
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Multiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Registration 类型在某个注入器上的注入配置
type Registration struct {
	Type     *Type
	Tokens   []Token
	Strategy string
	Lifetime Lifetime

	// Instance 由 RegisterInstance 预置的实例，HasInstance 为 true 时有效
	Instance    any
	HasInstance bool

	seq int
}

func (r Registration) clone() Registration {
	r.Tokens = append([]Token(nil), r.Tokens...)
	return r
}
