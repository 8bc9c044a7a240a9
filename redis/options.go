package redis

import (
	"errors"
	"time"
)

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Name         string        `json:"-"`            // 客户端名称
	Addr         string        `json:"addr"`         // Redis 服务器地址 (host:port)
	Password     string        `json:"password"`     // 密码（可选）
	DB           int           `json:"db"`           // 数据库编号
	PoolSize     int           `json:"poolSize"`     // 连接池大小
	MinIdleConns int           `json:"minIdleConns"` // 最小空闲连接数
	MaxRetries   int           `json:"maxRetries"`   // 最大重试次数
	DialTimeout  time.Duration `json:"-"`            // 连接超时时间
	ReadTimeout  time.Duration `json:"-"`            // 读取超时时间
	WriteTimeout time.Duration `json:"-"`            // 写入超时时间
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return errors.New("redis client name is required")
	}
	if o.Addr == "" {
		return errors.New("redis address is required")
	}
	if o.DB < 0 {
		return errors.New("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return errors.New("redis dial timeout must be positive")
	}
	return nil
}
