package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// memoryRepo keeps a collection in memory and serializes reorders like the
// advisory lock of the PostgreSQL repository does.
type memoryRepo[T domain.Ranked[T]] struct {
	mu        sync.Mutex
	items     []T
	writes    int
	loadErr   error
	afterLoad func()
}

func (r *memoryRepo[T]) Create(_ context.Context, item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func (r *memoryRepo[T]) LoadAll(_ context.Context) ([]T, error) {
	r.mu.Lock()
	if r.loadErr != nil {
		r.mu.Unlock()
		return nil, r.loadErr
	}
	out := append([]T(nil), r.items...)
	r.mu.Unlock()

	if r.afterLoad != nil {
		r.afterLoad()
	}
	domain.SortRanked(out)
	return out, nil
}

func (r *memoryRepo[T]) SaveAll(ctx context.Context, items []T) ([]T, error) {
	return r.Reorder(ctx, func([]T) []T { return items })
}

func (r *memoryRepo[T]) Reorder(_ context.Context, fn func([]T) []T) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}

	current := append([]T(nil), r.items...)
	domain.SortRanked(current)
	next := fn(current)
	if len(next) == 0 {
		return next, nil
	}

	r.writes += len(domain.Moved(current, next))
	r.items = append([]T(nil), next...)
	return next, nil
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, c domain.Collection, dest any) (bool, error) {
	args := m.Called(ctx, c, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, c domain.Collection, value any) error {
	return m.Called(ctx, c, value).Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, c domain.Collection) error {
	return m.Called(ctx, c).Error(0)
}

var _ interfaces.RankedRepository[domain.Dish] = (*memoryRepo[domain.Dish])(nil)

var base = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func dish(id string, position int, age time.Duration) domain.Dish {
	return domain.Dish{
		ID:        id,
		Name:      "dish " + id,
		Price:     decimal.RequireFromString("4.00"),
		Position:  position,
		CreatedAt: base.Add(-age),
	}
}

func newTestService(dishes ...domain.Dish) (*Service, *memoryRepo[domain.Dish], *mockCache) {
	repo := &memoryRepo[domain.Dish]{items: dishes}
	cache := new(mockCache)
	svc := NewService(repo, &memoryRepo[domain.Menu]{}, &memoryRepo[domain.Category]{}, cache, logger.NewNop())
	return svc, repo, cache
}

func ids(dishes []domain.Dish) []string {
	out := make([]string, len(dishes))
	for i, d := range dishes {
		out[i] = d.ID
	}
	return out
}

func TestReorderDishes_PartialBatch(t *testing.T) {
	svc, repo, cache := newTestService(dish("a", 0, 0), dish("b", 1, 0), dish("c", 2, 0))
	ctx := context.Background()
	cache.On("Invalidate", ctx, domain.CollectionDishes).Return(nil)

	got, err := svc.ReorderDishes(ctx, []domain.SortInstruction{{ID: "c", Index: 0}, {ID: "a", Index: 2}})
	require.NoError(t, err)

	// b keeps position 1
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))
	assert.Equal(t, 2, repo.writes)
	cache.AssertExpectations(t)
}

func TestReorderDishes_EmptyBatchTouchesNothing(t *testing.T) {
	svc, repo, cache := newTestService(dish("a", 0, 0))

	got, err := svc.ReorderDishes(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, repo.writes)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestReorderDishes_UnknownIDsIgnored(t *testing.T) {
	svc, repo, cache := newTestService(dish("a", 0, 0), dish("b", 1, 0))
	ctx := context.Background()
	cache.On("Invalidate", ctx, domain.CollectionDishes).Return(nil)

	got, err := svc.ReorderDishes(ctx, []domain.SortInstruction{{ID: "zzz", Index: 0}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	assert.Zero(t, repo.writes)
}

func TestReorderDishes_StorageError(t *testing.T) {
	svc, repo, cache := newTestService(dish("a", 0, 0))
	repo.loadErr = errors.New("db down")

	_, err := svc.ReorderDishes(context.Background(), []domain.SortInstruction{{ID: "a", Index: 3}})
	assert.EqualError(t, err, "db down")
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestReorderDishes_ConcurrentBatchesSerialize(t *testing.T) {
	svc, repo, cache := newTestService(dish("a", 0, 0), dish("b", 1, 0), dish("c", 2, 0))
	cache.On("Invalidate", mock.Anything, domain.CollectionDishes).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.ReorderDishes(context.Background(), []domain.SortInstruction{{ID: "a", Index: i}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := repo.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, final, 3)
}

func TestListDishes_CacheMissLoadsAndFills(t *testing.T) {
	svc, _, cache := newTestService(dish("old", 0, time.Hour), dish("new", 0, 0), dish("z", 5, 0))
	ctx := context.Background()

	cache.On("Get", ctx, domain.CollectionDishes, mock.Anything).Return(false, nil)
	cache.On("Set", ctx, domain.CollectionDishes, mock.Anything).Return(nil)

	got, err := svc.ListDishes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old", "z"}, ids(got))
	cache.AssertExpectations(t)
}

func TestListDishes_CacheHit(t *testing.T) {
	svc, repo, cache := newTestService()
	ctx := context.Background()
	repo.loadErr = errors.New("must not be called")

	cache.On("Get", ctx, domain.CollectionDishes, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*[]domain.Dish)
			*dest = []domain.Dish{dish("cached", 0, 0)}
		}).
		Return(true, nil)

	got, err := svc.ListDishes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cached"}, ids(got))
}

func TestListDishes_CacheErrorFallsBack(t *testing.T) {
	svc, _, cache := newTestService(dish("a", 0, 0))
	ctx := context.Background()

	cache.On("Get", ctx, domain.CollectionDishes, mock.Anything).Return(false, errors.New("redis down"))
	cache.On("Set", ctx, domain.CollectionDishes, mock.Anything).Return(errors.New("redis down"))

	got, err := svc.ListDishes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestListDishes_StaleLoadNotCached(t *testing.T) {
	svc, repo, cache := newTestService(dish("a", 0, 0), dish("b", 1, 0))
	ctx := context.Background()

	cache.On("Get", ctx, domain.CollectionDishes, mock.Anything).Return(false, nil)
	cache.On("Invalidate", ctx, domain.CollectionDishes).Return(nil)

	repo.afterLoad = func() {
		repo.afterLoad = nil
		_, err := svc.ReorderDishes(ctx, []domain.SortInstruction{{ID: "b", Index: 0}})
		require.NoError(t, err)
	}

	got, err := svc.ListDishes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNumberOfCalls(t, "Invalidate", 1)
}

func TestListDishes_WriteDuringFillDropsCache(t *testing.T) {
	svc, _, cache := newTestService(dish("a", 0, 0))
	ctx := context.Background()

	cache.On("Get", ctx, domain.CollectionDishes, mock.Anything).Return(false, nil)
	cache.On("Invalidate", ctx, domain.CollectionDishes).Return(nil)
	cache.On("Set", ctx, domain.CollectionDishes, mock.Anything).
		Run(func(mock.Arguments) { svc.invalidate(ctx, domain.CollectionDishes) }).
		Return(nil).Once()

	_, err := svc.ListDishes(ctx)
	require.NoError(t, err)
	cache.AssertNumberOfCalls(t, "Invalidate", 2)
}

func TestCreateDish(t *testing.T) {
	svc, repo, cache := newTestService()
	svc.newID = func() string { return "dish-42" }
	ctx := context.Background()
	cache.On("Invalidate", ctx, domain.CollectionDishes).Return(nil)

	got, err := svc.CreateDish(ctx, interfaces.CreateDishCommand{Name: "Manti", Price: decimal.RequireFromString("9.00")})
	require.NoError(t, err)
	assert.Equal(t, "dish-42", got.ID)
	assert.Zero(t, got.Position)
	require.Len(t, repo.items, 1)
	cache.AssertExpectations(t)
}

func TestCreateDish_Invalid(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.CreateDish(context.Background(), interfaces.CreateDishCommand{Name: "Free lunch", Price: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, repo.items)
}

func TestMenusAndCategories(t *testing.T) {
	menus := &memoryRepo[domain.Menu]{}
	categories := &memoryRepo[domain.Category]{}
	cache := new(mockCache)
	svc := NewService(&memoryRepo[domain.Dish]{}, menus, categories, cache, logger.NewNop())
	ctx := context.Background()
	cache.On("Invalidate", ctx, mock.Anything).Return(nil)

	pending := []string{"m1", "m2", "c1"}
	svc.newID = func() string {
		id := pending[0]
		pending = pending[1:]
		return id
	}

	_, err := svc.CreateMenu(ctx, interfaces.CreateGroupCommand{Name: "Lunch"})
	require.NoError(t, err)
	_, err = svc.CreateMenu(ctx, interfaces.CreateGroupCommand{Name: "Dinner"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, interfaces.CreateGroupCommand{Name: "Soups", DishIDs: []string{"d1"}})
	require.NoError(t, err)

	got, err := svc.ReorderMenus(ctx, []domain.SortInstruction{{ID: "m1", Index: 1}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].ID)
	assert.Equal(t, "m1", got[1].ID)

	cats, err := svc.ReorderCategories(ctx, []domain.SortInstruction{{ID: "c1", Index: 4}})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 4, cats[0].Position)
	assert.Equal(t, []string{"d1"}, cats[0].DishIDs)
}
