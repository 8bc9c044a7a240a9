package di

import "fmt"

// Kind 参数绑定种类
type Kind int

const (
	// KindType 按类型解析
	KindType Kind = iota
	// KindToken 按令牌解析
	KindToken
	// KindFactory 注入一个 *Factory 句柄
	KindFactory
	// KindLazy 注入一个 *Lazy 句柄
	KindLazy
	// KindOptional 解析失败（未注册）时注入 nil
	KindOptional
	// KindStrategy 注入策略组内所有实例组成的 []any
	KindStrategy
)

// String 返回绑定种类名称
func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindToken:
		return "token"
	case KindFactory:
		return "factory"
	case KindLazy:
		return "lazy"
	case KindOptional:
		return "optional"
	case KindStrategy:
		return "strategy"
	default:
		return "unknown"
	}
}

// Metadata 交给 TokenCache.Register 的元数据记录。
// 集合是封闭的：Binding、TypeTokenMeta、TypeStrategyMeta。
type Metadata interface {
	metadata()
}

// Binding 描述构造参数槽位 (Owner, Index) 如何被满足
type Binding struct {
	Owner *Type
	Index int
	Kind  Kind

	// Target 用于 KindType、KindFactory、KindLazy 以及按类型的 KindOptional
	Target *Type
	// Token 用于 KindToken 以及按令牌的 KindOptional
	Token Token
	// Strategy 用于 KindStrategy
	Strategy string
}

func (Binding) metadata() {}

// TypeTokenMeta 声明类型满足某个令牌
type TypeTokenMeta struct {
	Type  *Type
	Token Token
}

func (TypeTokenMeta) metadata() {}

// TypeStrategyMeta 声明类型是某个策略组的成员
type TypeStrategyMeta struct {
	Type *Type
	Key  string
}

func (TypeStrategyMeta) metadata() {}

// ParamType 将参数绑定到类型
func ParamType(owner *Type, index int, target *Type) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindType, Target: target}
}

// ParamToken 将参数绑定到令牌
func ParamToken(owner *Type, index int, token Token) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindToken, Token: token}
}

// ParamFactory 参数接收 target 的工厂句柄
func ParamFactory(owner *Type, index int, target *Type) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindFactory, Target: target}
}

// ParamLazy 参数接收 target 的延迟句柄
func ParamLazy(owner *Type, index int, target *Type) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindLazy, Target: target}
}

// ParamOptional 参数可选地解析 target
func ParamOptional(owner *Type, index int, target *Type) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindOptional, Target: target}
}

// ParamOptionalToken 参数可选地解析令牌
func ParamOptionalToken(owner *Type, index int, token Token) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindOptional, Token: token}
}

// ParamStrategy 参数接收策略组 key 的所有实例
func ParamStrategy(owner *Type, index int, key string) Binding {
	return Binding{Owner: owner, Index: index, Kind: KindStrategy, Strategy: key}
}

// TypeToken 声明 t 满足令牌 token
func TypeToken(t *Type, token Token) TypeTokenMeta {
	return TypeTokenMeta{Type: t, Token: token}
}

// TypeStrategy 声明 t 属于策略组 key
func TypeStrategy(t *Type, key string) TypeStrategyMeta {
	return TypeStrategyMeta{Type: t, Key: key}
}

func (b Binding) validate() error {
	if b.Owner == nil {
		return fmt.Errorf("%w: binding without owner", ErrInvalidType)
	}
	if b.Index < 0 || b.Index >= b.Owner.Arity() {
		return fmt.Errorf("%w: %s has no parameter %d", ErrInvalidType, b.Owner, b.Index)
	}

	switch b.Kind {
	case KindType, KindFactory, KindLazy:
		if b.Target == nil {
			return fmt.Errorf("%w: %s binding for %s[%d] needs a target", ErrInvalidType, b.Kind, b.Owner, b.Index)
		}
	case KindToken:
		if b.Token == nil {
			return fmt.Errorf("%w: token binding for %s[%d] needs a token", ErrInvalidType, b.Owner, b.Index)
		}
	case KindOptional:
		if b.Target == nil && b.Token == nil {
			return fmt.Errorf("%w: optional binding for %s[%d] needs a target or token", ErrInvalidType, b.Owner, b.Index)
		}
	case KindStrategy:
		if b.Strategy == "" {
			return fmt.Errorf("%w: strategy binding for %s[%d] needs a key", ErrInvalidType, b.Owner, b.Index)
		}
	default:
		return fmt.Errorf("%w: unknown binding kind %d", ErrInvalidType, b.Kind)
	}
	return nil
}
