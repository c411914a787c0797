package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

type Service struct {
	dishes     interfaces.RankedRepository[domain.Dish]
	menus      interfaces.RankedRepository[domain.Menu]
	categories interfaces.RankedRepository[domain.Category]
	cache      interfaces.CatalogCache
	logger     logger.Logger
	newID      func() string

	// generations counts writes per collection so a listing loaded before a
	// write is not cached after it.
	generations map[domain.Collection]*atomic.Uint64
}

func NewService(
	dishes interfaces.RankedRepository[domain.Dish],
	menus interfaces.RankedRepository[domain.Menu],
	categories interfaces.RankedRepository[domain.Category],
	cache interfaces.CatalogCache,
	logger logger.Logger,
) *Service {
	return &Service{
		dishes:     dishes,
		menus:      menus,
		categories: categories,
		cache:      cache,
		logger:     logger,
		newID:      uuid.NewString,

		generations: map[domain.Collection]*atomic.Uint64{
			domain.CollectionDishes:     new(atomic.Uint64),
			domain.CollectionMenus:      new(atomic.Uint64),
			domain.CollectionCategories: new(atomic.Uint64),
		},
	}
}

func (s *Service) CreateDish(ctx context.Context, cmd interfaces.CreateDishCommand) (*domain.Dish, error) {
	dish, err := domain.NewDish(s.newID(), cmd.Name, cmd.Description, cmd.Price)
	if err != nil {
		return nil, err
	}
	if err := create(ctx, s, domain.CollectionDishes, s.dishes, *dish); err != nil {
		return nil, err
	}
	return dish, nil
}

func (s *Service) CreateMenu(ctx context.Context, cmd interfaces.CreateGroupCommand) (*domain.Menu, error) {
	menu, err := domain.NewMenu(s.newID(), cmd.Name, cmd.DishIDs)
	if err != nil {
		return nil, err
	}
	if err := create(ctx, s, domain.CollectionMenus, s.menus, *menu); err != nil {
		return nil, err
	}
	return menu, nil
}

func (s *Service) CreateCategory(ctx context.Context, cmd interfaces.CreateGroupCommand) (*domain.Category, error) {
	category, err := domain.NewCategory(s.newID(), cmd.Name, cmd.DishIDs)
	if err != nil {
		return nil, err
	}
	if err := create(ctx, s, domain.CollectionCategories, s.categories, *category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) ListDishes(ctx context.Context) ([]domain.Dish, error) {
	return list(ctx, s, domain.CollectionDishes, s.dishes)
}

func (s *Service) ListMenus(ctx context.Context) ([]domain.Menu, error) {
	return list(ctx, s, domain.CollectionMenus, s.menus)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return list(ctx, s, domain.CollectionCategories, s.categories)
}

func (s *Service) ReorderDishes(ctx context.Context, instructions []domain.SortInstruction) ([]domain.Dish, error) {
	return reorder(ctx, s, domain.CollectionDishes, s.dishes, instructions)
}

func (s *Service) ReorderMenus(ctx context.Context, instructions []domain.SortInstruction) ([]domain.Menu, error) {
	return reorder(ctx, s, domain.CollectionMenus, s.menus, instructions)
}

func (s *Service) ReorderCategories(ctx context.Context, instructions []domain.SortInstruction) ([]domain.Category, error) {
	return reorder(ctx, s, domain.CollectionCategories, s.categories, instructions)
}

func create[T domain.Ranked[T]](ctx context.Context, s *Service, c domain.Collection, repo interfaces.RankedRepository[T], item T) error {
	if err := repo.Create(ctx, item); err != nil {
		s.logger.Error("db_insert_failed", fmt.Sprintf("Failed to create %s entry", c), "", nil, err)
		return err
	}
	s.invalidate(ctx, c)
	return nil
}

// list serves the collection from cache when present. Cache failures fall
// back to storage. A load that overlaps a write in this process is returned
// but not cached.
func list[T domain.Ranked[T]](ctx context.Context, s *Service, c domain.Collection, repo interfaces.RankedRepository[T]) ([]T, error) {
	var cached []T
	found, err := s.cache.Get(ctx, c, &cached)
	if err != nil {
		s.logger.Error("cache_read_failed", "Failed to read catalog cache", "", map[string]interface{}{"collection": c}, err)
	}
	if found && err == nil {
		return cached, nil
	}

	gen := s.generations[c]
	loadedAt := gen.Load()

	items, err := repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	if gen.Load() != loadedAt {
		s.logger.Debug("cache_fill_skipped", "Collection changed during load", "", map[string]interface{}{"collection": c})
		return items, nil
	}

	if err := s.cache.Set(ctx, c, items); err != nil {
		s.logger.Error("cache_write_failed", "Failed to write catalog cache", "", map[string]interface{}{"collection": c}, err)
		return items, nil
	}

	// a write that landed between the check and Set may have been overwritten
	if gen.Load() != loadedAt {
		s.dropCache(ctx, c)
	}
	return items, nil
}

// reorder applies a partial batch to the collection. An empty batch returns
// an empty slice without touching storage.
func reorder[T domain.Ranked[T]](ctx context.Context, s *Service, c domain.Collection, repo interfaces.RankedRepository[T], instructions []domain.SortInstruction) ([]T, error) {
	if len(instructions) == 0 {
		metrics.ObserveReorder(c, 0, nil)
		return []T{}, nil
	}

	items, err := repo.Reorder(ctx, func(current []T) []T {
		return domain.Reorder(current, instructions)
	})
	metrics.ObserveReorder(c, len(instructions), err)
	if err != nil {
		s.logger.Error("reorder_failed", fmt.Sprintf("Failed to reorder %s", c), "", nil, err)
		return nil, err
	}

	s.invalidate(ctx, c)
	s.logger.Debug("catalog_reordered", fmt.Sprintf("Reordered %s", c), "", map[string]interface{}{
		"collection":   c,
		"instructions": len(instructions),
	})
	return items, nil
}

// invalidate records a committed write to c and drops its cached listing.
func (s *Service) invalidate(ctx context.Context, c domain.Collection) {
	s.generations[c].Add(1)
	s.dropCache(ctx, c)
}

func (s *Service) dropCache(ctx context.Context, c domain.Collection) {
	if err := s.cache.Invalidate(ctx, c); err != nil {
		s.logger.Error("cache_invalidate_failed", "Failed to invalidate catalog cache", "", map[string]interface{}{"collection": c}, err)
	}
}
