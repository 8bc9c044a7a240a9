package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/hosting"
	"github.com/gocrud/inject/logging"
)

// HostedServicesKey 托管服务所在的策略组
const HostedServicesKey = "core.HostedServices"

// HostedService 定义了一个具有启动和停止生命周期的托管服务
type HostedService = hosting.HostedService

// hostedServices 在启动时从根注入器解析策略组 HostedServicesKey 的所有成员并交给管理器运行
type hostedServices struct {
	rt *Runtime

	mu      sync.Mutex
	manager *hosting.HostedServiceManager
	cancel  context.CancelFunc
}

func newHostedServices(rt *Runtime) *hostedServices {
	return &hostedServices{rt: rt}
}

func (h *hostedServices) start(ctx context.Context) error {
	inj := h.rt.Injector
	services, err := di.ResolveStrategies[HostedService](inj, HostedServicesKey)
	if err != nil {
		return fmt.Errorf("core: failed to resolve hosted services: %w", err)
	}
	if len(services) == 0 {
		return nil
	}

	types := inj.StrategyTypes(HostedServicesKey)
	manager := hosting.NewHostedServiceManager(h.rt.LoggerFactory.CreateLogger("hosting"))
	for i, svc := range services {
		manager.Add(types[i].Name(), svc)
	}

	// 服务的 ctx 伴随应用运行，不随启动 ctx 结束
	serviceCtx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.manager = manager
	h.cancel = cancel
	h.mu.Unlock()

	errCh := manager.StartAll(serviceCtx)
	go func() {
		for err := range errCh {
			h.rt.reportError(err)
			h.rt.Shutdown()
		}
	}()
	return nil
}

func (h *hostedServices) stop(ctx context.Context) error {
	h.mu.Lock()
	manager, cancel := h.manager, h.cancel
	h.mu.Unlock()
	if manager == nil {
		return nil
	}

	cancel()
	err := manager.StopAll(ctx)
	if waitErr := manager.Wait(ctx); waitErr != nil {
		h.rt.Logger.Warn("hosted services did not exit in time", logging.Field{Key: "error", Value: waitErr})
	}
	return err
}
