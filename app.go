package app

import "github.com/gocrud/inject/core"

// New 应用所有 Option 并构建运行时，返回时根注入器已可用
func New(opts ...core.Option) (*core.Runtime, error) {
	rt := core.NewRuntime()
	if err := rt.Apply(opts...); err != nil {
		return nil, err
	}
	if err := rt.Build(); err != nil {
		return nil, err
	}
	return rt, nil
}
