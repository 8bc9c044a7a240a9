package mongodb_test

import (
	"context"
	"os"
	"testing"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/gocrud/inject/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func newRuntime(t *testing.T, data map[string]any, opts ...core.Option) *core.Runtime {
	t.Helper()
	data["logging"] = map[string]any{"console": false}

	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(core.WithConfig(func(b *config.ConfigurationBuilder) {
		b.AddInMemory(data)
	})))
	require.NoError(t, rt.Apply(opts...))
	require.NoError(t, rt.Build())
	t.Cleanup(func() {
		_ = rt.Stop(context.Background())
	})
	return rt
}

func TestClientsRegisteredByToken(t *testing.T) {
	rt := newRuntime(t, map[string]any{
		"mongodb": map[string]any{
			"default": map[string]any{"uri": "mongodb://localhost:27017", "database": "app"},
		},
	}, mongodb.New("mongodb", mongodb.WithClient("audit", "mongodb://audit:27017")))

	def, err := di.ResolveToken[*mongo.Client](rt.Injector, mongodb.DefaultToken)
	require.NoError(t, err)
	named, err := di.ResolveToken[*mongo.Client](rt.Injector, mongodb.Token("default"))
	require.NoError(t, err)
	assert.Same(t, def, named)

	db, err := di.ResolveToken[*mongo.Database](rt.Injector, mongodb.DatabaseToken("default"))
	require.NoError(t, err)
	assert.Equal(t, "app", db.Name())

	_, err = rt.Injector.GetToken(mongodb.DatabaseToken("audit"))
	assert.Error(t, err)

	factory, err := di.Resolve[*mongodb.Factory](rt.Injector, mongodb.FactoryType)
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "default"}, factory.Names())
}

func TestBuilderErrors(t *testing.T) {
	builder := mongodb.NewBuilder()
	builder.Add("empty", "", nil)
	builder.Add("dup", "mongodb://localhost:27017", nil)
	builder.Add("dup", "mongodb://localhost:27017", nil)

	_, err := builder.Build(logging.NewNopLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "uri is required")
	assert.ErrorContains(t, err, "already configured")
}

func TestInvalidUri(t *testing.T) {
	builder := mongodb.NewBuilder().Add("bad", "not-a-uri", nil)
	_, err := builder.Build(logging.NewNopLogger())
	assert.Error(t, err)
}

func TestPingIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("skipping integration test; set INTEGRATION_TEST=true to run")
	}

	rt := newRuntime(t, map[string]any{}, mongodb.New("",
		mongodb.WithClient(mongodb.DefaultName, "mongodb://localhost:27017"),
		mongodb.WithPing(),
	))
	require.NoError(t, rt.Start(context.Background()))
}
