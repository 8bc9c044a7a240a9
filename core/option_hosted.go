package core

import (
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
)

// WithHostedService 注册一个托管服务类型
// 类型的实例必须实现 HostedService。框架在启动时解析策略组中的所有服务，
// 在独立的 goroutine 中调用 Start，停止时调用 Stop。
//
// 示例：
//
//	poller := di.NewType("Poller", newPoller, core.LoggerType)
//	app.Run(core.WithHostedService(poller))
func WithHostedService(t *di.Type, opts ...di.RegisterOption) Option {
	return func(rt *Runtime) error {
		opts = append(opts, di.WithStrategy(HostedServicesKey))
		return rt.Provide(t, opts...)
	}
}

// WorkerFunc 定义简单的后台任务函数
type WorkerFunc = hosting.WorkerFunc

// WithWorker 将一个阻塞的函数注册为托管服务，返回错误时应用退出
func WithWorker(name string, fn WorkerFunc) Option {
	return func(rt *Runtime) error {
		return rt.OnBuild(func(rt *Runtime) error {
			worker := hosting.NewWorker(name, fn, rt.LoggerFactory.CreateLogger("worker"))
			return rt.Injector.RegisterInstance(di.Value(name), worker, di.WithStrategy(HostedServicesKey))
		})
	}
}
