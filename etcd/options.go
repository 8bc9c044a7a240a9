package etcd

import (
	"errors"
	"time"
)

// ClientOptions etcd 客户端配置选项
type ClientOptions struct {
	Name               string        `json:"-"`                  // 客户端名称
	Endpoints          []string      `json:"endpoints"`          // etcd 服务器地址列表
	Username           string        `json:"username"`           // 用户名（可选）
	Password           string        `json:"password"`           // 密码（可选）
	MaxCallSendMsgSize int           `json:"maxCallSendMsgSize"` // 最大发送消息大小（可选）
	MaxCallRecvMsgSize int           `json:"maxCallRecvMsgSize"` // 最大接收消息大小（可选）
	DialTimeout        time.Duration `json:"-"`                  // 连接超时时间
	AutoSyncInterval   time.Duration `json:"-"`                  // 自动同步间隔（可选）
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return errors.New("etcd client name is required")
	}
	if len(o.Endpoints) == 0 {
		return errors.New("etcd endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return errors.New("etcd dial timeout must be positive")
	}
	return nil
}
