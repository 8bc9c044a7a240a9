package di_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试用服务
type Clock struct{ ID int64 }

type Repository struct {
	Clock *Clock
}

type Service struct {
	Repo  *Repository
	Cache any
}

var clockSeq atomic.Int64

func newClockType() *di.Type {
	return di.NewType("Clock", func(args []any) (any, error) {
		return &Clock{ID: clockSeq.Add(1)}, nil
	})
}

func newRepositoryType(clock *di.Type) *di.Type {
	return di.NewType("Repository", func(args []any) (any, error) {
		return &Repository{Clock: args[0].(*Clock)}, nil
	}, clock)
}

// chain 构造 n 个依次依赖的类型，chain[0] 依赖 chain[1]，最后一个没有依赖
func chain(n int) []*di.Type {
	types := make([]*di.Type, n)
	for i := n - 1; i >= 0; i-- {
		name := fmt.Sprintf("T%d", i)
		if i == n-1 {
			types[i] = di.NewType(name, func(args []any) (any, error) { return name, nil })
			continue
		}
		types[i] = di.NewType(name, func(args []any) (any, error) { return name, nil }, types[i+1])
	}
	return types
}

// 测试单例：同一注入器上多次解析返回同一实例
func TestGetSingleton(t *testing.T) {
	inj := di.New()
	clock := newClockType()

	first, err := inj.Get(clock)
	require.NoError(t, err)
	second, err := inj.Get(clock)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

// 测试 Multiple：每次解析都创建新实例
func TestGetMultiple(t *testing.T) {
	inj := di.New()
	clock := newClockType()
	require.NoError(t, inj.Register(clock, di.AsMultiple()))

	first, err := inj.Get(clock)
	require.NoError(t, err)
	second, err := inj.Get(clock)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

// 测试生命周期冲突：最后一次显式设置生命周期的注册生效
func TestLifetimeLatestRegistrationWins(t *testing.T) {
	inj := di.New()
	clock := newClockType()

	require.NoError(t, inj.Register(clock, di.AsSingleton()))
	require.NoError(t, inj.Register(clock, di.AsMultiple()))
	// 不设置生命周期的注册不改变已有值
	require.NoError(t, inj.Register(clock, di.WithTokens(di.Name("clock"))))

	reg := inj.Registrations()[clock]
	assert.Equal(t, di.Multiple, reg.Lifetime)
	assert.Equal(t, []di.Token{di.Name("clock")}, reg.Tokens)

	a, _ := inj.Get(clock)
	b, _ := inj.Get(clock)
	assert.NotSame(t, a, b)
}

func TestGetResolvesDeclaredParams(t *testing.T) {
	inj := di.New()
	clock := newClockType()
	repo := newRepositoryType(clock)

	v, err := inj.Get(repo)
	require.NoError(t, err)

	c, err := inj.Get(clock)
	require.NoError(t, err)
	assert.Same(t, c, v.(*Repository).Clock)
}

// 测试令牌：最后注册的类型胜出，TypesForToken 保持注册顺序
func TestGetTokenLastRegistrationWins(t *testing.T) {
	inj := di.New()
	token := di.Name("store")
	memory := di.NewType("MemoryStore", func(args []any) (any, error) { return "memory", nil })
	disk := di.NewType("DiskStore", func(args []any) (any, error) { return "disk", nil })

	require.NoError(t, inj.Register(memory, di.WithTokens(token)))
	require.NoError(t, inj.Register(disk, di.WithTokens(token)))

	v, err := inj.GetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "disk", v)
	assert.Equal(t, []*di.Type{memory, disk}, inj.TypesForToken(token))
}

func TestGetTokenFromSharedMetadata(t *testing.T) {
	inj := di.New()
	sym := di.NewSymbol("primary")
	other := di.NewSymbol("primary")
	store := di.NewType("Store", func(args []any) (any, error) { return "store", nil })

	inj.Metadata().MustRegister(di.TypeToken(store, sym))

	v, err := inj.GetToken(sym)
	require.NoError(t, err)
	assert.Equal(t, "store", v)

	// 同描述的符号是不同的令牌
	_, err = inj.GetToken(other)
	assert.ErrorIs(t, err, di.ErrUnregisteredToken)
}

func TestGetTokenUnregistered(t *testing.T) {
	inj := di.New()

	_, err := inj.GetToken(di.Name("missing"))
	assert.ErrorIs(t, err, di.ErrUnregisteredToken)

	v, err := inj.GetOptionalToken(di.Name("missing"))
	assert.NoError(t, err)
	assert.Nil(t, v)
}

// 测试令牌绑定优先于参数声明的类型
func TestBindingWinsOverDeclaredType(t *testing.T) {
	inj := di.New()
	declared := di.NewType("Declared", func(args []any) (any, error) { return "declared", nil })
	bound := di.NewType("Bound", func(args []any) (any, error) { return "bound", nil })
	owner := di.NewType("Owner", func(args []any) (any, error) { return args[0], nil }, declared)

	require.NoError(t, inj.Register(bound, di.WithTokens(di.Name("dep"))))
	inj.Metadata().MustRegister(di.ParamToken(owner, 0, di.Name("dep")))

	v, err := inj.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, "bound", v)
}

// 测试显式参数优先于任何绑定
func TestExplicitParamWins(t *testing.T) {
	inj := di.New()
	clock := newClockType()
	repo := newRepositoryType(clock)
	given := &Clock{ID: -1}

	v, err := inj.Get(repo, di.WithParam(0, given))
	require.NoError(t, err)
	assert.Same(t, given, v.(*Repository).Clock)
}

func TestOptionalBindingUnregistered(t *testing.T) {
	inj := di.New()
	cache := di.NewType("Cache", func(args []any) (any, error) { return "cache", nil })
	clock := newClockType()
	svc := di.NewType("Service", func(args []any) (any, error) {
		return &Service{Repo: &Repository{Clock: args[0].(*Clock)}, Cache: args[1]}, nil
	}, clock, nil)
	inj.Metadata().MustRegister(di.ParamOptional(svc, 1, cache))

	v, err := inj.Get(svc)
	require.NoError(t, err)
	assert.Nil(t, v.(*Service).Cache)

	// 注册之后可选参数被注入
	fresh := di.New(di.WithTokenCache(inj.Metadata()))
	require.NoError(t, fresh.Register(cache))
	v, err = fresh.Get(svc)
	require.NoError(t, err)
	assert.Equal(t, "cache", v.(*Service).Cache)
}

func TestOptionalDoesNotSwallowOtherErrors(t *testing.T) {
	inj := di.New()
	boom := errors.New("boom")
	broken := di.NewType("Broken", func(args []any) (any, error) { return nil, boom })
	require.NoError(t, inj.Register(broken))

	_, err := inj.GetOptional(broken)
	assert.ErrorIs(t, err, boom)
}

func TestGetOptional(t *testing.T) {
	inj := di.New()
	clock := newClockType()

	v, err := inj.GetOptional(clock)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, inj.Register(clock))
	v, err = inj.GetOptional(clock)
	require.NoError(t, err)
	assert.IsType(t, &Clock{}, v)
}

func TestMissingRegistration(t *testing.T) {
	inj := di.New()
	config := di.Value("Config")
	owner := di.NewType("Owner", func(args []any) (any, error) { return args[0], nil }, config)

	_, err := inj.Get(owner)
	require.ErrorIs(t, err, di.ErrMissingRegistration)

	var resErr *di.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Same(t, owner, resErr.Type)
	assert.Equal(t, 0, resErr.Index)

	// 没有声明类型也没有绑定的槽位
	bare := di.NewType("Bare", func(args []any) (any, error) { return args, nil }, nil)
	_, err = inj.Get(bare)
	assert.ErrorIs(t, err, di.ErrMissingRegistration)
}

func TestAllowUnresolvedParams(t *testing.T) {
	inj := di.New(di.WithUnresolvedParams(true))
	config := di.Value("Config")
	owner := di.NewType("Owner", func(args []any) (any, error) { return args, nil }, config, nil)

	v, err := inj.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, v)
}

func TestRegisterInstance(t *testing.T) {
	inj := di.New()
	config := di.Value("Config")
	owner := di.NewType("Owner", func(args []any) (any, error) { return args[0], nil }, config)

	require.NoError(t, inj.RegisterInstance(config, "dsn=memory"))

	v, err := inj.Get(owner)
	require.NoError(t, err)
	assert.Equal(t, "dsn=memory", v)
}

// 测试循环依赖：A -> B -> A 在达到深度上限之前报错
func TestCircularDependency(t *testing.T) {
	inj := di.New()
	a := di.NewType("A", func(args []any) (any, error) { return "a", nil }, nil)
	b := di.NewType("B", func(args []any) (any, error) { return "b", nil }, nil)
	inj.Metadata().MustRegister(
		di.ParamType(a, 0, b),
		di.ParamType(b, 0, a),
	)

	_, err := inj.Get(a)
	require.ErrorIs(t, err, di.ErrCircularDependency)
	assert.NotErrorIs(t, err, di.ErrDepthExceeded)
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestSelfDependency(t *testing.T) {
	inj := di.New()
	a := di.NewType("A", func(args []any) (any, error) { return "a", nil }, nil)
	inj.Metadata().MustRegister(di.ParamType(a, 0, a))

	_, err := inj.Get(a)
	require.ErrorIs(t, err, di.ErrCircularDependency)
	assert.Contains(t, err.Error(), "A -> A")
}

// 测试深度：链长不超过上限时成功，超过时失败
func TestDepthLimit(t *testing.T) {
	const limit = 5

	inj := di.New(di.WithMaxTreeDepth(limit))
	ok := chain(limit)
	v, err := inj.Get(ok[0])
	require.NoError(t, err)
	assert.Equal(t, "T0", v)

	tooDeep := chain(limit + 1)
	_, err = inj.Get(tooDeep[0])
	assert.ErrorIs(t, err, di.ErrDepthExceeded)
}

func TestFactoryBinding(t *testing.T) {
	inj := di.New()
	clock := newClockType()
	require.NoError(t, inj.Register(clock, di.AsMultiple()))
	owner := di.NewType("Owner", func(args []any) (any, error) { return args[0], nil }, nil)
	inj.Metadata().MustRegister(di.ParamFactory(owner, 0, clock))

	v, err := inj.Get(owner)
	require.NoError(t, err)
	factory, ok := v.(*di.Factory)
	require.True(t, ok)
	assert.Same(t, clock, factory.Type())

	first, err := factory.Get()
	require.NoError(t, err)
	second, err := factory.Get()
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestLazyBinding(t *testing.T) {
	inj := di.New()
	var built atomic.Int32
	heavy := di.NewType("Heavy", func(args []any) (any, error) {
		built.Add(1)
		return &Clock{ID: 42}, nil
	})
	owner := di.NewType("Owner", func(args []any) (any, error) { return args[0], nil }, nil)
	inj.Metadata().MustRegister(di.ParamLazy(owner, 0, heavy))

	v, err := inj.Get(owner)
	require.NoError(t, err)
	lazy := v.(*di.Lazy)
	assert.False(t, lazy.Resolved())
	assert.Equal(t, int32(0), built.Load())

	first, err := lazy.Value()
	require.NoError(t, err)
	second, err := lazy.Value()
	require.NoError(t, err)

	assert.True(t, lazy.Resolved())
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), built.Load())
}

// 测试策略组：按注册顺序返回成员实例，消费者拿到同一组实例
func TestStrategies(t *testing.T) {
	inj := di.New()
	email := di.NewType("Email", func(args []any) (any, error) { return &Clock{ID: 1}, nil })
	sms := di.NewType("SMS", func(args []any) (any, error) { return &Clock{ID: 2}, nil })
	require.NoError(t, inj.Register(email, di.WithStrategy("notifier")))
	require.NoError(t, inj.Register(sms, di.WithStrategy("notifier")))

	values, err := inj.GetStrategies("notifier")
	require.NoError(t, err)
	require.Len(t, values, 2)
	e, _ := inj.Get(email)
	s, _ := inj.Get(sms)
	assert.Same(t, e, values[0])
	assert.Same(t, s, values[1])

	consumer := di.NewType("Dispatcher", func(args []any) (any, error) { return args[0], nil }, nil)
	inj.Metadata().MustRegister(di.ParamStrategy(consumer, 0, "notifier"))

	v, err := inj.Get(consumer)
	require.NoError(t, err)
	assert.Equal(t, values, v)
	assert.Equal(t, []*di.Type{consumer}, inj.Metadata().StrategyConsumers("notifier"))

	empty, err := inj.GetStrategies("unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestResolveStrategies(t *testing.T) {
	inj := di.New()
	one := di.NewType("One", func(args []any) (any, error) { return 1, nil })
	two := di.NewType("Two", func(args []any) (any, error) { return 2, nil })
	inj.Metadata().MustRegister(di.TypeStrategy(one, "n"), di.TypeStrategy(two, "n"))

	values, err := di.ResolveStrategies[int](inj, "n")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, values)
}

func TestDuplicateTokens(t *testing.T) {
	inj := di.New(di.WithDuplicateTokens(false))
	token := di.Name("store")
	memory := di.NewType("MemoryStore", func(args []any) (any, error) { return "memory", nil })
	disk := di.NewType("DiskStore", func(args []any) (any, error) { return "disk", nil })

	require.NoError(t, inj.Register(memory, di.WithTokens(token)))
	// 同一类型重复注册是允许的
	require.NoError(t, inj.Register(memory, di.WithTokens(token)))

	err := inj.Register(disk, di.WithTokens(token))
	assert.ErrorIs(t, err, di.ErrDuplicateToken)

	// 子作用域同样能看到祖先的令牌
	scope, err := inj.CreateScope("child")
	require.NoError(t, err)
	assert.ErrorIs(t, scope.Register(disk, di.WithTokens(token)), di.ErrDuplicateToken)
}

func TestConstructorError(t *testing.T) {
	inj := di.New()
	boom := errors.New("boom")
	broken := di.NewType("Broken", func(args []any) (any, error) { return nil, boom })

	_, err := inj.Get(broken)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Broken")
}

func TestExternalResolution(t *testing.T) {
	var calls atomic.Int32
	inj := di.New(di.WithExternalResolution(di.ExternalResolutionStrategy{
		Resolver: func(t *di.Type, inj *di.Injector, locals map[int]any) (any, error) {
			calls.Add(1)
			return "external:" + t.Name(), nil
		},
		CacheSyncing: true,
	}))
	clock := newClockType()

	v, err := inj.Get(clock)
	require.NoError(t, err)
	assert.Equal(t, "external:Clock", v)

	// 外部解析接管后仍然每次调用 Resolver
	_, err = inj.Get(clock)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolveGeneric(t *testing.T) {
	inj := di.New()
	clock := newClockType()

	c, err := di.Resolve[*Clock](inj, clock)
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = di.Resolve[*Repository](inj, clock)
	assert.ErrorContains(t, err, "expected *di_test.Repository")
}

func TestGetOnNilType(t *testing.T) {
	inj := di.New()
	_, err := inj.Get(nil)
	assert.ErrorIs(t, err, di.ErrInvalidType)
}

// 测试注册表与共享元数据两条路径共用注册顺序：后注册的令牌胜出
func TestTokenOrderAcrossRegistrationPaths(t *testing.T) {
	inj := di.New()
	token := di.Name("store")
	memory := di.NewType("MemoryStore", func(args []any) (any, error) { return "memory", nil })
	disk := di.NewType("DiskStore", func(args []any) (any, error) { return "disk", nil })

	require.NoError(t, inj.Register(memory, di.WithTokens(token)))
	inj.Metadata().MustRegister(di.TypeToken(disk, token))

	v, err := inj.GetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "disk", v)
	assert.Equal(t, []*di.Type{memory, disk}, inj.TypesForToken(token))

	// 再次通过注册表注册，memory 重新成为最新
	require.NoError(t, inj.Register(memory, di.WithTokens(token)))
	v, err = inj.GetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "memory", v)
	assert.Equal(t, []*di.Type{disk, memory}, inj.TypesForToken(token))

	// 子作用域看到同样的顺序
	scope, err := inj.CreateScope("child")
	require.NoError(t, err)
	inj.Metadata().MustRegister(di.TypeToken(disk, token))
	v, err = scope.GetToken(token)
	require.NoError(t, err)
	assert.Equal(t, "disk", v)
}

// 测试策略组成员按加入顺序排列，与注册路径无关
func TestStrategyOrderAcrossRegistrationPaths(t *testing.T) {
	inj := di.New()
	first := di.NewType("First", func(args []any) (any, error) { return "first", nil })
	second := di.NewType("Second", func(args []any) (any, error) { return "second", nil })
	third := di.NewType("Third", func(args []any) (any, error) { return "third", nil })

	inj.Metadata().MustRegister(di.TypeStrategy(first, "steps"))
	require.NoError(t, inj.Register(second, di.WithStrategy("steps")))
	inj.Metadata().MustRegister(di.TypeStrategy(third, "steps"))
	// 重复声明不改变位置
	inj.Metadata().MustRegister(di.TypeStrategy(first, "steps"))

	values, err := di.ResolveStrategies[string](inj, "steps")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, values)
	assert.Equal(t, []*di.Type{first, second, third}, inj.StrategyTypes("steps"))
}

func TestExternalResolutionWithoutResolver(t *testing.T) {
	inj := di.New(di.WithExternalResolution(di.ExternalResolutionStrategy{}))

	assert.NotPanics(t, func() {
		_, err := inj.Get(newClockType())
		assert.ErrorIs(t, err, di.ErrInvalidType)
	})
}

// 测试仅通过元数据声明的类型同样满足可选依赖
func TestOptionalTypeDeclaredByMetadata(t *testing.T) {
	inj := di.New()
	cache := di.NewType("Cache", func(args []any) (any, error) { return "cache", nil })
	svc := di.NewType("Service", func(args []any) (any, error) {
		return &Service{Cache: args[0]}, nil
	}, nil)
	inj.Metadata().MustRegister(
		di.TypeToken(cache, di.Name("cache")),
		di.ParamOptional(svc, 0, cache),
	)

	v, err := inj.Get(svc)
	require.NoError(t, err)
	assert.Equal(t, "cache", v.(*Service).Cache)

	v, err = inj.GetOptional(cache)
	require.NoError(t, err)
	assert.Equal(t, "cache", v)

	grouped := di.NewType("Grouped", func(args []any) (any, error) { return "grouped", nil })
	inj.Metadata().MustRegister(di.TypeStrategy(grouped, "group"))
	v, err = inj.GetOptional(grouped)
	require.NoError(t, err)
	assert.Equal(t, "grouped", v)
}

// 测试并发注册同一令牌时只有一个类型成功
func TestDuplicateTokensConcurrent(t *testing.T) {
	const workers = 8
	for round := 0; round < 200; round++ {
		inj := di.New(di.WithDuplicateTokens(false))
		token := di.Name("store")

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			rejected  atomic.Int32
		)
		start := make(chan struct{})
		for w := 0; w < workers; w++ {
			typ := di.NewType(fmt.Sprintf("Store%d", w), func(args []any) (any, error) { return w, nil })
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				err := inj.Register(typ, di.WithTokens(token))
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, di.ErrDuplicateToken):
					rejected.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		require.EqualValues(t, 1, succeeded.Load(), "round %d", round)
		require.EqualValues(t, workers-1, rejected.Load(), "round %d", round)
		require.Len(t, inj.TypesForToken(token), 1)
	}
}
