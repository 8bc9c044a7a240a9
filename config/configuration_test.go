package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverOptions struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	TLS  bool   `json:"tls"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValueStore(t *testing.T) {
	store := NewValueStore()
	store.Store(map[string]any{"key": "value"})
	assert.Equal(t, "value", store.Load()["key"])

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()
}

func TestPathCache(t *testing.T) {
	cache := &PathCache{}

	parts := cache.GetPathSegments("a:b.c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)
	assert.Equal(t, parts, cache.GetPathSegments("a:b.c"))
}

// 测试多个配置源按顺序覆盖
func TestBuilderLayering(t *testing.T) {
	yamlPath := writeFile(t, "app.yaml", "server:\n  host: yaml-host\n  port: 80\nname: demo\n")
	jsonPath := writeFile(t, "app.json", `{"server":{"port":8080}}`)

	cfg, err := NewConfigurationBuilder().
		AddYamlFile(yamlPath).
		AddJsonFile(jsonPath).
		AddJsonFile(filepath.Join(t.TempDir(), "missing.json"), true).
		AddInMemory(map[string]any{"server": map[string]any{"tls": true}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Get("name"))
	assert.Equal(t, "yaml-host", cfg.Get("server:host"))
	assert.Equal(t, "8080", cfg.Get("server.port"))

	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	tls, err := cfg.GetBool("server:tls")
	require.NoError(t, err)
	assert.True(t, tls)

	opts, err := Section[serverOptions](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, serverOptions{Host: "yaml-host", Port: 8080, TLS: true}, opts)

	assert.Equal(t, "yaml-host", cfg.GetSection("server").Get("host"))
	assert.Equal(t, "fallback", cfg.GetWithDefault("server:missing", "fallback"))
}

func TestMissingRequiredFile(t *testing.T) {
	_, err := NewConfigurationBuilder().
		AddYamlFile(filepath.Join(t.TempDir(), "missing.yaml")).
		Build()
	assert.Error(t, err)
}

func TestKeyNotFound(t *testing.T) {
	cfg, err := NewConfigurationBuilder().AddInMemory(map[string]any{}).Build()
	require.NoError(t, err)

	var target serverOptions
	assert.ErrorIs(t, cfg.Bind("server", &target), ErrKeyNotFound)
	_, err = cfg.GetInt("server:port")
	assert.True(t, IsNotFound(err))

	def := serverOptions{Host: "localhost"}
	got, err := SectionOrDefault(cfg, "server", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("INJECTTEST_SERVER__HOST", "env-host")
	t.Setenv("INJECTTEST_SERVER_PORT", "9090")
	t.Setenv("INJECTTEST_DEBUG", "true")

	cfg, err := NewConfigurationBuilder().AddEnvironmentVariables("INJECTTEST_").Build()
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.Get("server:host"))
	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 9090, port)
	debug, err := cfg.GetBool("debug")
	require.NoError(t, err)
	assert.True(t, debug)
}

func TestDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "APP_DI__MAXTREEDEPTH=32\nAPP_NAME=\"demo app\"\nOTHER=ignored\n")

	cfg, err := NewConfigurationBuilder().
		AddDotEnv(path, "APP_").
		AddDotEnv(filepath.Join(t.TempDir(), "missing.env"), "APP_", true).
		Build()
	require.NoError(t, err)

	depth, err := cfg.GetInt("di:maxtreedepth")
	require.NoError(t, err)
	assert.Equal(t, 32, depth)
	assert.Equal(t, "demo app", cfg.Get("name"))
	assert.Empty(t, cfg.Get("other"))

	_, err = NewConfigurationBuilder().AddDotEnv(filepath.Join(t.TempDir(), "missing.env"), "").Build()
	assert.Error(t, err)
}

// 测试重载：OptionsCache 与 Monitor 跟随最新配置
func TestReloadUpdatesOptions(t *testing.T) {
	path := writeFile(t, "app.yaml", "server:\n  port: 80\n")
	cfg, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)

	cache := NewOptionsCache[serverOptions](cfg, "server")
	monitor := NewMonitor(cache)
	assert.Equal(t, 80, monitor.Value().Port)

	var notified int
	cfg.OnReload(func() { notified++ })

	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 81\n"), 0o644))
	require.NoError(t, cfg.Reload())

	assert.Equal(t, 81, monitor.Value().Port)
	assert.Equal(t, 81, cfg.(*configuration).lookup("server:port"))
	assert.Equal(t, 1, notified)

	snapshot := cache.Snapshot()
	assert.Equal(t, cache.Get(), snapshot)
}

func TestReloadFailureKeepsData(t *testing.T) {
	path := writeFile(t, "app.yaml", "name: before\n")
	cfg, err := NewConfigurationBuilder().AddYamlFile(path).Build()
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	assert.Error(t, cfg.Reload())
	assert.Equal(t, "before", cfg.Get("name"))
}

func TestGetAllReturnsCopy(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"a": map[string]any{"b": 1}}).
		Build()
	require.NoError(t, err)

	all := cfg.GetAll()
	all["a"].(map[string]any)["b"] = 2
	assert.Equal(t, "1", cfg.Get("a:b"))
}

func TestEtcdSourceIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("skipping integration test; set INTEGRATION_TEST=true to run")
	}

	cfg, err := NewConfigurationBuilder().
		AddEtcd(EtcdOptions{Endpoints: []string{"localhost:2379"}, Prefix: "/inject-test"}).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, cfg.GetAll())
}

func BenchmarkConfigGet(b *testing.B) {
	cfg, _ := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{
				"host": "localhost",
				"port": 8080,
			},
		}).
		Build()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cfg.Get("server:host")
	}
}
