package di

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDestroyed is returned by every operation on a destroyed injector.
	ErrDestroyed = errors.New("injector destroyed")

	// ErrDepthExceeded is returned when the resolution ancestry reaches the
	// configured MaxTreeDepth.
	ErrDepthExceeded = errors.New("maximum resolution depth exceeded")

	// ErrCircularDependency is returned when a type requests its own
	// construction. The error message includes the full chain.
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrUnregisteredToken is returned when no type is mapped to a token.
	ErrUnregisteredToken = errors.New("unregistered token")

	// ErrMissingRegistration is returned when a required constructor slot
	// cannot be satisfied.
	ErrMissingRegistration = errors.New("missing registration")

	// ErrDuplicateToken is returned when a token is registered against a
	// second type while duplicate tokens are not allowed.
	ErrDuplicateToken = errors.New("duplicate token")

	// ErrInvalidType is returned for malformed types, bindings and
	// constructor functions.
	ErrInvalidType = errors.New("invalid type")
)

// ResolutionError 记录失败发生在哪个构造参数槽位
type ResolutionError struct {
	Type  *Type
	Index int
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("di: resolving %s parameter %d: %v", e.Type, e.Index, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// isMissing 报告错误是否属于"未注册"一类，只有 optional 路径会吞掉它
func isMissing(err error) bool {
	return errors.Is(err, ErrMissingRegistration) || errors.Is(err, ErrUnregisteredToken)
}

func formatPath(ancestry []*Type, t *Type) string {
	chain := make([]string, 0, len(ancestry)+1)
	for _, a := range ancestry {
		chain = append(chain, a.String())
	}
	chain = append(chain, t.String())
	return strings.Join(chain, " -> ")
}
