package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

const scopeKey = "web.scope"

// ContextType 请求作用域中预置的 *gin.Context
var ContextType = di.Value("web.Context")

// scopeRequest 为每个请求创建子作用域，请求结束后销毁
func (b *Builder) scopeRequest(c *gin.Context) {
	if !b.requestScope || b.injector == nil {
		c.Next()
		return
	}

	scope, err := b.injector.CreateScope("request:" + c.Request.Method + " " + c.FullPath())
	if err != nil {
		b.logger.Error("failed to create request scope", logging.Field{Key: "error", Value: err})
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	defer func() {
		if err := scope.Destroy(); err != nil {
			b.logger.Warn("failed to destroy request scope",
				logging.Field{Key: "scope", Value: scope.ID()},
				logging.Field{Key: "error", Value: err})
		}
	}()

	if err := scope.RegisterInstance(ContextType, c); err != nil {
		b.logger.Error("failed to seed request context", logging.Field{Key: "error", Value: err})
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Set(scopeKey, scope)
	c.Next()
}

// logRequest 记录请求日志
func (b *Builder) logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()

	b.logger.Debug("request handled",
		logging.Field{Key: "method", Value: c.Request.Method},
		logging.Field{Key: "path", Value: c.Request.URL.Path},
		logging.Field{Key: "status", Value: c.Writer.Status()},
		logging.Field{Key: "duration", Value: time.Since(start).String()})
}

// Scope 返回当前请求的子作用域，未启用请求作用域时返回 nil
func Scope(c *gin.Context) *di.Injector {
	v, ok := c.Get(scopeKey)
	if !ok {
		return nil
	}
	scope, _ := v.(*di.Injector)
	return scope
}

// Resolve 在当前请求的作用域中解析类型 t
func Resolve[T any](c *gin.Context, t *di.Type) (T, error) {
	scope := Scope(c)
	if scope == nil {
		var zero T
		return zero, fmt.Errorf("web: request scope is not enabled")
	}
	return di.Resolve[T](scope, t)
}
