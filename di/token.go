package di

// Token 注入令牌，用于在不引用具体类型的情况下命名一个依赖
//
// 两种实现：
//   - Name：字符串令牌，按值比较
//   - *Symbol：符号令牌，按引用比较，同描述的两个 Symbol 互不相等
//
// 示例：
//
//	var Cache = di.Name("cache")
//	var Primary = di.NewSymbol("primary-db")
//
//	inj.Register(redisCacheType, di.WithTokens(Cache))
//	cache, _ := inj.GetToken(Cache)
type Token interface {
	String() string
	isToken()
}

// Name 字符串令牌
type Name string

func (n Name) String() string { return string(n) }

func (Name) isToken() {}

// Symbol 符号令牌
type Symbol struct {
	desc string
}

// NewSymbol 创建一个新的符号令牌
//
// 参数 desc 仅用于错误信息和导出，不参与比较。
func NewSymbol(desc string) *Symbol {
	return &Symbol{desc: desc}
}

// Description 返回符号描述
func (s *Symbol) Description() string {
	return s.desc
}

func (s *Symbol) String() string {
	return "Symbol(" + s.desc + ")"
}

func (*Symbol) isToken() {}
