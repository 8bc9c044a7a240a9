package di

import (
	"fmt"
	"reflect"
)

// Resolve 解析类型 t 并断言为 T
//
// 示例：
//
//	repo, err := di.Resolve[*UserRepository](inj, userRepoType)
func Resolve[T any](inj *Injector, t *Type, opts ...ResolveOption) (T, error) {
	v, err := inj.Get(t, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v)
}

// ResolveToken 解析令牌并断言为 T
func ResolveToken[T any](inj *Injector, token Token, opts ...ResolveOption) (T, error) {
	v, err := inj.GetToken(token, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v)
}

// ResolveStrategies 解析策略组并把每个成员断言为 T
func ResolveStrategies[T any](inj *Injector, key string) ([]T, error) {
	values, err := inj.GetStrategies(key)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		item, err := cast[T](v)
		if err != nil {
			return nil, fmt.Errorf("di: strategy %q: %w", key, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// MustResolve 与 Resolve 相同，出错时 panic
func MustResolve[T any](inj *Injector, t *Type, opts ...ResolveOption) T {
	v, err := Resolve[T](inj, t, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

func cast[T any](v any) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("di: resolved value is %T, expected %s", v, reflect.TypeFor[T]())
	}
	return out, nil
}
