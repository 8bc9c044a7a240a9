package di_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newGraphInjector(t *testing.T) *di.Injector {
	t.Helper()

	inj := di.New(di.WithName("app"))
	clock := newClockType()
	repo := newRepositoryType(clock)
	svc := di.NewType("Service", func(args []any) (any, error) { return nil, nil }, repo, nil, nil)
	config := di.Value("Config")

	require.NoError(t, inj.Register(repo, di.WithTokens(di.Name("repo")), di.AsMultiple()))
	require.NoError(t, inj.Register(svc, di.WithStrategy("services")))
	require.NoError(t, inj.RegisterInstance(config, "cfg"))
	inj.Metadata().MustRegister(
		di.ParamToken(svc, 1, di.Name("cache")),
		di.ParamStrategy(svc, 2, "plugins"),
	)
	return inj
}

func TestGraph(t *testing.T) {
	g := newGraphInjector(t).Graph()

	require.Len(t, g.Nodes, 3)
	assert.Equal(t, di.GraphNode{Type: "Repository", Lifetime: "multiple", Tokens: []string{"repo"}}, g.Nodes[0])
	assert.Equal(t, "services", g.Nodes[1].Strategy)
	assert.True(t, g.Nodes[2].Instance)

	assert.Equal(t, []di.GraphEdge{
		{From: "Repository", Index: 0, Kind: "type", To: "Clock"},
		{From: "Service", Index: 0, Kind: "type", To: "Repository"},
		{From: "Service", Index: 1, Kind: "token", To: "cache"},
		{From: "Service", Index: 2, Kind: "strategy", To: "plugins"},
	}, g.Edges)
}

func TestGraphWriteYAML(t *testing.T) {
	g := newGraphInjector(t).Graph()

	var buf bytes.Buffer
	require.NoError(t, g.WriteYAML(&buf))

	var decoded di.Graph
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, g, decoded)
	assert.Contains(t, buf.String(), "lifetime: multiple")
}

func TestGraphWriteJSON(t *testing.T) {
	g := newGraphInjector(t).Graph()

	var buf bytes.Buffer
	require.NoError(t, g.WriteJSON(&buf))

	var decoded di.Graph
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, g, decoded)
}
