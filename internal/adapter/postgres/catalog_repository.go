package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// rankedTable maps one catalog collection onto its table.
type rankedTable[T domain.Ranked[T]] struct {
	collection domain.Collection
	columns    []string
	values     func(item T) []any
	scan       func(row pgx.Row) (T, error)
}

type rankedRepository[T domain.Ranked[T]] struct {
	db    DB
	table rankedTable[T]
}

func NewDishRepository(db DB) interfaces.RankedRepository[domain.Dish] {
	return &rankedRepository[domain.Dish]{db: db, table: rankedTable[domain.Dish]{
		collection: domain.CollectionDishes,
		columns:    []string{"id", "name", "description", "price", "available", "position", "created_at", "updated_at"},
		values: func(d domain.Dish) []any {
			return []any{d.ID, d.Name, d.Description, d.Price, d.Available, d.Position, d.CreatedAt, d.UpdatedAt}
		},
		scan: func(row pgx.Row) (domain.Dish, error) {
			var d domain.Dish
			err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Available, &d.Position, &d.CreatedAt, &d.UpdatedAt)
			return d, err
		},
	}}
}

func NewMenuRepository(db DB) interfaces.RankedRepository[domain.Menu] {
	return &rankedRepository[domain.Menu]{db: db, table: rankedTable[domain.Menu]{
		collection: domain.CollectionMenus,
		columns:    []string{"id", "name", "dish_ids", "position", "created_at", "updated_at"},
		values: func(m domain.Menu) []any {
			return []any{m.ID, m.Name, dishIDs(m.DishIDs), m.Position, m.CreatedAt, m.UpdatedAt}
		},
		scan: func(row pgx.Row) (domain.Menu, error) {
			var m domain.Menu
			err := row.Scan(&m.ID, &m.Name, &m.DishIDs, &m.Position, &m.CreatedAt, &m.UpdatedAt)
			return m, err
		},
	}}
}

func NewCategoryRepository(db DB) interfaces.RankedRepository[domain.Category] {
	return &rankedRepository[domain.Category]{db: db, table: rankedTable[domain.Category]{
		collection: domain.CollectionCategories,
		columns:    []string{"id", "name", "dish_ids", "position", "created_at", "updated_at"},
		values: func(c domain.Category) []any {
			return []any{c.ID, c.Name, dishIDs(c.DishIDs), c.Position, c.CreatedAt, c.UpdatedAt}
		},
		scan: func(row pgx.Row) (domain.Category, error) {
			var c domain.Category
			err := row.Scan(&c.ID, &c.Name, &c.DishIDs, &c.Position, &c.CreatedAt, &c.UpdatedAt)
			return c, err
		},
	}}
}

func (r *rankedRepository[T]) Create(ctx context.Context, item T) error {
	cols := r.table.columns
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		r.table.collection, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := r.db.Exec(ctx, query, r.table.values(item)...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table.collection, err)
	}
	return nil
}

func (r *rankedRepository[T]) LoadAll(ctx context.Context) ([]T, error) {
	return r.load(ctx, r.db)
}

func (r *rankedRepository[T]) SaveAll(ctx context.Context, items []T) ([]T, error) {
	return r.Reorder(ctx, func([]T) []T { return items })
}

// Reorder runs load, fn and save inside one transaction holding an advisory
// lock on the collection, so concurrent reorders of it are serialized.
// Only rows whose position changed are written.
func (r *rankedRepository[T]) Reorder(ctx context.Context, fn func(current []T) []T) ([]T, error) {
	var next []T
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(r.table.collection)); err != nil {
			return fmt.Errorf("failed to lock %s: %w", r.table.collection, err)
		}

		current, err := r.load(ctx, tx)
		if err != nil {
			return err
		}

		next = fn(current)
		if len(next) == 0 {
			return nil
		}

		return r.savePositions(ctx, tx, domain.Moved(current, next))
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (r *rankedRepository[T]) load(ctx context.Context, q Querier) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY position ASC, created_at DESC`,
		strings.Join(r.table.columns, ", "), r.table.collection)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table.collection, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := r.table.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.table.collection, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.table.collection, err)
	}

	domain.SortRanked(items)
	return items, nil
}

func (r *rankedRepository[T]) savePositions(ctx context.Context, tx pgx.Tx, moved []T) error {
	query := fmt.Sprintf(`UPDATE %s SET position = $1, updated_at = $2 WHERE id = $3`, r.table.collection)
	now := time.Now().UTC()

	for _, item := range moved {
		rank := item.Rank()
		if _, err := tx.Exec(ctx, query, rank.Position, now, rank.ID); err != nil {
			return fmt.Errorf("failed to update position of %s %s: %w", r.table.collection, rank.ID, err)
		}
	}
	return nil
}

func dishIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
