package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	app "github.com/gocrud/inject"
	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietConfig() core.Option {
	return core.WithConfig(func(b *config.ConfigurationBuilder) {
		b.AddInMemory(map[string]any{
			"logging": map[string]any{"console": false},
			"app":     map[string]any{"shutdownTimeout": "1s"},
		})
	})
}

func TestNew(t *testing.T) {
	rt, err := app.New(quietConfig())
	require.NoError(t, err)
	assert.NotNil(t, rt.Injector)
	require.NoError(t, rt.Stop(context.Background()))
}

func TestRunContextStopsOnCancel(t *testing.T) {
	var stopped atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- app.RunContext(ctx, quietConfig(), core.WithWorker("idle", func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Store(true)
			return nil
		}))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("RunContext did not return")
	}
	assert.True(t, stopped.Load())
}

func TestRunContextStartFailure(t *testing.T) {
	err := app.RunContext(context.Background(), quietConfig(), core.Invoke(func(rt *core.Runtime) error {
		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			return assert.AnError
		})
		return nil
	}))
	assert.ErrorIs(t, err, assert.AnError)
}
