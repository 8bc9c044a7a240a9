package core

import "github.com/gocrud/inject/di"

// 运行时预置在根注入器中的类型。它们只能由 Build 提供实例。
var (
	RuntimeType       = di.Value("core.Runtime")
	ConfigurationType = di.Value("config.Configuration")
	LoggerFactoryType = di.Value("logging.LoggerFactory")
	LoggerType        = di.Value("logging.Logger")
	LifecycleType     = di.Value("core.LifecycleEvents")
)

// 预置类型对应的令牌
var (
	RuntimeToken       = di.Name("runtime")
	ConfigToken        = di.Name("config")
	LoggerFactoryToken = di.Name("loggerFactory")
	LoggerToken        = di.Name("logger")
	LifecycleToken     = di.Name("lifecycle")
)
