package web

import (
	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// Controller 简单的控制器接口标记
type Controller interface {
	// MountRoutes 注册路由
	MountRoutes(router gin.IRouter)
}

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	address      string
	port         int
	engine       *gin.Engine
	controllers  []*di.Type
	requestScope bool

	// 以下字段在 build 时设置，中间件在请求到达时读取
	injector *di.Injector
	logger   logging.Logger
}

// NewBuilder 创建 Web 构建器
func NewBuilder() *Builder {
	// 设置 Gin 为发布模式（默认）
	gin.SetMode(gin.ReleaseMode)

	b := &Builder{
		port:         8080,
		engine:       gin.New(),
		controllers:  make([]*di.Type, 0),
		requestScope: true,
		logger:       logging.NewNopLogger(),
	}

	// 默认中间件：恢复 panic、请求日志与请求作用域。
	// 中间件必须先于路由注册，因此在这里安装并在请求时读取 build 后的状态。
	b.engine.Use(gin.Recovery(), b.logRequest, b.scopeRequest)
	return b
}

// UsePort 设置端口，0 表示由系统分配
func (b *Builder) UsePort(port int) *Builder {
	b.port = port
	return b
}

// UseAddress 设置监听主机地址，默认监听所有地址
func (b *Builder) UseAddress(address string) *Builder {
	b.address = address
	return b
}

// DisableRequestScope 关闭每个请求的子作用域
func (b *Builder) DisableRequestScope() *Builder {
	b.requestScope = false
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// AddControllers 注册控制器类型。
// 控制器加入策略组 ControllersKey，在主机启动时从根注入器解析并挂载路由。
func (b *Builder) AddControllers(controllers ...*di.Type) *Builder {
	b.controllers = append(b.controllers, controllers...)
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PUT(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.DELETE(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// SetMode 设置 Gin 模式
func (b *Builder) SetMode(mode string) *Builder {
	gin.SetMode(mode)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// build 绑定注入器并创建 Web 主机
func (b *Builder) build(inj *di.Injector, logger logging.Logger) *Host {
	b.injector = inj
	if logger != nil {
		b.logger = logger
	}
	return newHost(b)
}
