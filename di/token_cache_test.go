package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCacheBindings(t *testing.T) {
	cache := di.NewTokenCache()
	dep := di.NewType("Dep", nil)
	owner := di.NewType("Owner", nil, nil, nil, nil)

	require.NoError(t, cache.Register(di.ParamToken(owner, 2, di.Name("b"))))
	require.NoError(t, cache.Register(di.ParamToken(owner, 0, di.Name("a"))))
	require.NoError(t, cache.Register(di.ParamLazy(owner, 1, dep)))

	// 按槽位排序，没有该种类绑定的槽位不出现
	tokens := cache.Bindings(owner, di.KindToken)
	require.Len(t, tokens, 2)
	assert.Equal(t, 0, tokens[0].Index)
	assert.Equal(t, 2, tokens[1].Index)

	lazy := cache.Bindings(owner, di.KindLazy)
	require.Len(t, lazy, 1)
	assert.Same(t, dep, lazy[0].Target)

	assert.Empty(t, cache.Bindings(owner, di.KindStrategy))
}

// 测试同一槽位只保留最后一个绑定
func TestTokenCacheSlotOverwrite(t *testing.T) {
	cache := di.NewTokenCache()
	dep := di.NewType("Dep", nil)
	owner := di.NewType("Owner", nil, nil)

	cache.MustRegister(di.ParamToken(owner, 0, di.Name("a")))
	cache.MustRegister(di.ParamFactory(owner, 0, dep))

	b, ok := cache.Binding(owner, 0)
	require.True(t, ok)
	assert.Equal(t, di.KindFactory, b.Kind)
	assert.Empty(t, cache.Bindings(owner, di.KindToken))
}

func TestTokenCacheTokens(t *testing.T) {
	cache := di.NewTokenCache()
	a := di.NewType("A", nil)
	b := di.NewType("B", nil)
	token := di.Name("t")

	cache.MustRegister(di.TypeToken(a, token), di.TypeToken(b, token), di.TypeToken(a, di.Name("u")))

	assert.Equal(t, []*di.Type{a, b}, cache.TypesFor(token))
	last, ok := cache.TypeFor(token)
	require.True(t, ok)
	assert.Same(t, b, last)
	assert.Equal(t, []di.Token{token, di.Name("u")}, cache.TokensOf(a))

	// 重新注册把类型移到末尾
	cache.MustRegister(di.TypeToken(a, token))
	last, _ = cache.TypeFor(token)
	assert.Same(t, a, last)

	_, ok = cache.TypeFor(di.Name("missing"))
	assert.False(t, ok)
}

func TestTokenCacheStrategies(t *testing.T) {
	cache := di.NewTokenCache()
	a := di.NewType("A", nil)
	b := di.NewType("B", nil)
	consumer := di.NewType("Consumer", nil, nil, nil)
	other := di.NewType("Other", nil, nil)

	cache.MustRegister(
		di.TypeStrategy(a, "s"),
		di.TypeStrategy(b, "s"),
		di.TypeStrategy(a, "s"),
		di.ParamStrategy(other, 0, "s"),
		di.ParamStrategy(consumer, 1, "s"),
		di.ParamStrategy(consumer, 0, "s"),
	)

	assert.Equal(t, []*di.Type{a, b}, cache.StrategyContributors("s"))
	assert.Equal(t, []*di.Type{other, consumer}, cache.StrategyConsumers("s"))
}

func TestTokenCacheRejectsInvalidMetadata(t *testing.T) {
	cache := di.NewTokenCache()
	owner := di.NewType("Owner", nil, nil)

	assert.ErrorIs(t, cache.Register(di.ParamToken(owner, 3, di.Name("x"))), di.ErrInvalidType)
	assert.ErrorIs(t, cache.Register(di.ParamType(owner, 0, nil)), di.ErrInvalidType)
	assert.ErrorIs(t, cache.Register(di.ParamStrategy(owner, 0, "")), di.ErrInvalidType)
	assert.ErrorIs(t, cache.Register(di.TypeToken(nil, di.Name("x"))), di.ErrInvalidType)
	assert.ErrorIs(t, cache.Register(di.Binding{Index: 0, Kind: di.KindType}), di.ErrInvalidType)
	assert.Panics(t, func() { cache.MustRegister(di.ParamOptional(owner, 0, nil)) })
}

func TestTokenCacheClear(t *testing.T) {
	cache := di.NewTokenCache()
	a := di.NewType("A", nil)
	owner := di.NewType("Owner", nil, nil)
	cache.MustRegister(di.TypeToken(a, di.Name("t")), di.TypeStrategy(a, "s"), di.ParamType(owner, 0, a))

	cache.Clear()

	assert.Empty(t, cache.TypesFor(di.Name("t")))
	assert.Empty(t, cache.TokensOf(a))
	assert.Empty(t, cache.StrategyContributors("s"))
	_, ok := cache.Binding(owner, 0)
	assert.False(t, ok)
}
