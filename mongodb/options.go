package mongodb

import (
	"errors"
	"time"
)

// Options MongoDB 客户端配置选项
type Options struct {
	Name        string        `json:"-"`
	Uri         string        `json:"uri"`
	Database    string        `json:"database"` // 设置后额外注册该数据库句柄
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	MaxPoolSize uint64        `json:"maxPoolSize"`
	MinPoolSize uint64        `json:"minPoolSize"`
	Timeout     time.Duration `json:"-"`
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *Options {
	return &Options{
		Name:        name,
		Uri:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return errors.New("mongo client name is required")
	}
	if o.Uri == "" {
		return errors.New("mongo uri is required")
	}
	return nil
}
