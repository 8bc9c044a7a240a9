package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Options 数据库配置选项
type Options struct {
	Name         string         `json:"-"`
	Driver       string         `json:"driver"` // 从配置节创建时使用，目前支持 sqlite
	DSN          string         `json:"dsn"`
	Dialector    gorm.Dialector `json:"-"`
	GormConfig   *gorm.Config   `json:"-"`
	MaxIdleConns int            `json:"maxIdleConns"`
	MaxOpenConns int            `json:"maxOpenConns"`
	MaxLifetime  time.Duration  `json:"-"`
	AutoMigrate  []any          `json:"-"` // 需要自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *Options {
	return &Options{
		Name:         name,
		Dialector:    dialector,
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
		AutoMigrate:  make([]any, 0),
	}
}

// resolveDialector 未显式给出 Dialector 时按 Driver 和 DSN 创建
func (o *Options) resolveDialector() error {
	if o.Dialector != nil {
		return nil
	}
	switch o.Driver {
	case "sqlite":
		o.Dialector = sqlite.Open(o.DSN)
		return nil
	case "":
		return errors.New("database dialector is required")
	default:
		return fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return errors.New("database name is required")
	}
	return o.resolveDialector()
}
