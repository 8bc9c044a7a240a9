package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选）
	Timeout     time.Duration // 请求超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）

	// Client 复用已有客户端，设置后忽略连接参数
	Client *clientv3.Client
}

func (o EtcdOptions) withDefaults() EtcdOptions {
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.DialTimeout == 0 {
		o.DialTimeout = 5 * time.Second
	}
	return o
}

// EtcdSource etcd 配置源。键中的 / 视为层级分隔符，值按 JSON、YAML、字符串的顺序解析。
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) client() (*clientv3.Client, func(), error) {
	if s.Options.Client != nil {
		return s.Options.Client, func() {}, nil
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	return cli, func() { cli.Close() }, nil
}

func (s *EtcdSource) prefix() string {
	if s.Options.Prefix == "" {
		return "/"
	}
	return s.Options.Prefix
}

func (s *EtcdSource) Load() (map[string]any, error) {
	opts := s.Options.withDefaults()
	cli, release, err := s.client()
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	resp, err := cli.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := strings.TrimPrefix(string(kv.Key), s.Options.Prefix)
		key = strings.Trim(key, "/")
		if key == "" {
			continue
		}
		setNestedValue(result, strings.ReplaceAll(key, "/", ":"), decodeValue(kv.Value))
	}
	return result, nil
}

// Watch 监听前缀下的变更并在每批事件后调用 onChange，直到 ctx 结束
func (s *EtcdSource) Watch(ctx context.Context, onChange func()) error {
	cli, release, err := s.client()
	if err != nil {
		return err
	}
	defer release()

	for resp := range cli.Watch(ctx, s.prefix(), clientv3.WithPrefix()) {
		if err := resp.Err(); err != nil {
			return fmt.Errorf("etcd watch: %w", err)
		}
		if len(resp.Events) > 0 {
			onChange()
		}
	}
	return ctx.Err()
}

// WatchEtcd 监听 etcd 变更并重载配置，通常在后台服务中运行
func WatchEtcd(ctx context.Context, cfg Configuration, opts EtcdOptions) error {
	source := &EtcdSource{Options: opts.withDefaults()}
	return source.Watch(ctx, func() {
		_ = cfg.Reload()
	})
}

func decodeValue(raw []byte) any {
	var jsonValue any
	if err := json.Unmarshal(raw, &jsonValue); err == nil {
		return jsonValue
	}
	var yamlValue any
	if err := yaml.Unmarshal(raw, &yamlValue); err == nil {
		if _, ok := yamlValue.(string); !ok && yamlValue != nil {
			return yamlValue
		}
	}
	return string(raw)
}
