package di

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Func 把 Go 构造函数包装为可构造类型
//
// fn 的形式必须是 func(deps...) T 或 func(deps...) (T, error)。params 按顺序声明
// 每个参数槽位的类型，缺省的槽位视为没有声明类型，需要通过绑定元数据或 WithParam 提供。
// 未能解析的可选槽位以零值传入。
//
// 示例：
//
//	logger := di.MustFunc("Logger", NewLogger)
//	service := di.MustFunc("UserService", NewUserService, logger)
func Func(name string, fn any, params ...*Type) (*Type, error) {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("di: %w: %s: expected a function, got %T", ErrInvalidType, name, fn)
	}
	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("di: %w: %s: variadic constructors are not supported", ErrInvalidType, name)
	}

	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("di: %w: %s: second result must be error", ErrInvalidType, name)
		}
	default:
		return nil, fmt.Errorf("di: %w: %s: constructor must return T or (T, error)", ErrInvalidType, name)
	}

	if len(params) > fnType.NumIn() {
		return nil, fmt.Errorf("di: %w: %s takes %d parameters, %d declared", ErrInvalidType, name, fnType.NumIn(), len(params))
	}
	slots := make([]*Type, fnType.NumIn())
	copy(slots, params)

	return NewType(name, invoker(name, fnVal), slots...), nil
}

// MustFunc 与 Func 相同，出错时 panic
func MustFunc(name string, fn any, params ...*Type) *Type {
	t, err := Func(name, fn, params...)
	if err != nil {
		panic(err)
	}
	return t
}

func invoker(name string, fn reflect.Value) Constructor {
	fnType := fn.Type()

	return func(args []any) (any, error) {
		in := make([]reflect.Value, fnType.NumIn())
		for idx := range in {
			want := fnType.In(idx)
			var arg any
			if idx < len(args) {
				arg = args[idx]
			}
			if arg == nil {
				in[idx] = reflect.Zero(want)
				continue
			}
			v := reflect.ValueOf(arg)
			if !v.Type().AssignableTo(want) {
				return nil, fmt.Errorf("%w: %s parameter %d: cannot use %T as %s", ErrInvalidType, name, idx, arg, want)
			}
			in[idx] = v
		}

		results := fn.Call(in)
		if len(results) == 2 && !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}

		// 检查 nil
		first := results[0]
		switch first.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if first.IsNil() {
				return nil, fmt.Errorf("%s returned nil instance", name)
			}
		}
		return first.Interface(), nil
	}
}
