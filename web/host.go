package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// ControllersKey 控制器策略组
const ControllersKey = "web.Controllers"

// Host Web 主机，作为托管服务运行
type Host struct {
	addr     string
	engine   *gin.Engine
	injector *di.Injector
	logger   logging.Logger

	mapOnce sync.Once
	mapErr  error

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	ready    chan struct{}
}

func newHost(b *Builder) *Host {
	return &Host{
		addr:     net.JoinHostPort(b.address, strconv.Itoa(b.port)),
		engine:   b.engine,
		injector: b.injector,
		logger:   b.logger,
		server:   &http.Server{Handler: b.engine},
		ready:    make(chan struct{}),
	}
}

// Address 获取监听地址 (e.g., "[::]:50234")，仅在 Ready 之后有效
func (h *Host) Address() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener != nil {
		return h.listener.Addr().String()
	}
	return h.addr
}

// Ready 返回一个通道，主机开始监听后关闭
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Handler 挂载控制器路由并返回 HTTP 处理器。控制器只会被挂载一次。
func (h *Host) Handler() (http.Handler, error) {
	h.mapOnce.Do(func() {
		h.mapErr = h.mapControllers()
	})
	if h.mapErr != nil {
		return nil, h.mapErr
	}
	return h.engine, nil
}

// Start 启动 Web 主机
// 注意：此方法会阻塞，直到服务退出。框架会在独立的 Goroutine 中调用它。
func (h *Host) Start(ctx context.Context) error {
	if _, err := h.Handler(); err != nil {
		return fmt.Errorf("web: failed to map controllers: %w", err)
	}

	// 监听端口 (同步，确保端口可用)
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("web: failed to listen on %s: %w", h.addr, err)
	}

	h.mu.Lock()
	h.listener = ln
	h.mu.Unlock()
	close(h.ready)

	h.logger.Info("web host started", logging.Field{Key: "address", Value: ln.Addr().String()})

	// Serve 会一直阻塞直到 Shutdown 被调用或发生错误
	if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error("web host error", logging.Field{Key: "error", Value: err})
		return err
	}
	return nil
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("failed to shutdown web host gracefully", logging.Field{Key: "error", Value: err})
		return err
	}

	h.logger.Info("web host stopped")
	return nil
}

// mapControllers 从根注入器解析控制器策略组并注册路由
func (h *Host) mapControllers() error {
	controllers, err := di.ResolveStrategies[Controller](h.injector, ControllersKey)
	if err != nil {
		return err
	}
	types := h.injector.StrategyTypes(ControllersKey)

	for i, ctrl := range controllers {
		ctrl.MountRoutes(h.engine)
		if i < len(types) {
			h.logger.Debug("mapped controller routes", logging.Field{Key: "controller", Value: types[i].String()})
		}
	}
	return nil
}
