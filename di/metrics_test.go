package di_test

import (
	"bytes"
	"testing"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试解析统计：三次解析计数为 3，最后解析时间单调不减
func TestMetricsResolutionCount(t *testing.T) {
	inj := di.New()
	clock := newClockType()

	var last []int64
	for n := 0; n < 3; n++ {
		_, err := inj.Get(clock)
		require.NoError(t, err)
		rec, ok := inj.Metrics().MetricsForType(clock)
		require.True(t, ok)
		last = append(last, rec.LastResolution.UnixNano())
	}

	rec, ok := inj.Metrics().MetricsForType(clock)
	require.True(t, ok)
	assert.Equal(t, 3, rec.ResolutionCount)
	assert.Equal(t, "Clock", rec.Name)
	assert.Same(t, clock, rec.ActivationOwner)
	assert.Equal(t, 0, rec.DependencyCount)
	assert.LessOrEqual(t, last[0], last[1])
	assert.LessOrEqual(t, last[1], last[2])
}

func TestMetricsActivationOwner(t *testing.T) {
	inj := di.New()
	clock := newClockType()
	repo := newRepositoryType(clock)

	_, err := inj.Get(repo)
	require.NoError(t, err)

	rec, ok := inj.Metrics().MetricsForType(clock)
	require.True(t, ok)
	assert.Same(t, repo, rec.ActivationOwner)

	rec, ok = inj.Metrics().MetricsForType(repo)
	require.True(t, ok)
	assert.Same(t, repo, rec.ActivationOwner)
	assert.Equal(t, 1, rec.DependencyCount)

	data := inj.Metrics().Data()
	require.Len(t, data, 2)
	assert.Same(t, clock, data[0].Type)
	assert.Same(t, repo, data[1].Type)
}

func TestMetricsDisabled(t *testing.T) {
	inj := di.New(di.WithMetrics(false))
	clock := newClockType()

	for n := 0; n < 3; n++ {
		_, err := inj.Get(clock)
		require.NoError(t, err)
	}

	_, ok := inj.Metrics().MetricsForType(clock)
	assert.False(t, ok)
	assert.Empty(t, inj.Metrics().Data())
	assert.False(t, inj.Metrics().Enabled())
}

func TestMetricsPerScope(t *testing.T) {
	root := di.New()
	clock := newClockType()
	scope, _ := root.CreateScope("scope")

	_, err := scope.Get(clock)
	require.NoError(t, err)

	_, ok := root.Metrics().MetricsForType(clock)
	assert.False(t, ok)
	rec, ok := scope.Metrics().MetricsForType(clock)
	require.True(t, ok)
	assert.Equal(t, 1, rec.ResolutionCount)

	scope.Metrics().Clear()
	assert.Empty(t, scope.Metrics().Data())
}

func TestMetricsDump(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggingBuilder().
		AddConsole(logging.ConsoleLoggerOptions{Output: &buf}).
		Build().
		CreateLogger("test")

	inj := di.New()
	clock := newClockType()
	_, err := inj.Get(clock)
	require.NoError(t, err)

	inj.Metrics().Dump(logger)

	out := buf.String()
	assert.Contains(t, out, "di metrics")
	assert.Contains(t, out, "type=Clock")
	assert.Contains(t, out, "resolutions=1")
}
