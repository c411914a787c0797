package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Collection names a sortable catalog collection.
type Collection string

const (
	CollectionDishes     Collection = "dishes"
	CollectionMenus      Collection = "menus"
	CollectionCategories Collection = "categories"
)

// Dish is a single sellable item of the catalog
type Dish struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Menu groups dishes for display
type Menu struct {
	ID        string
	Name      string
	DishIDs   []string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category is a display category of dishes
type Category struct {
	ID        string
	Name      string
	DishIDs   []string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDish creates a dish at position 0
func NewDish(id, name, description string, price decimal.Decimal) (*Dish, error) {
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: dish name must be 1-100 characters", ErrValidation)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: dish price must be positive", ErrValidation)
	}

	now := time.Now().UTC()
	return &Dish{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewMenu creates a menu at position 0
func NewMenu(id, name string, dishIDs []string) (*Menu, error) {
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: menu name must be 1-100 characters", ErrValidation)
	}

	now := time.Now().UTC()
	return &Menu{ID: id, Name: name, DishIDs: dishIDs, CreatedAt: now, UpdatedAt: now}, nil
}

// NewCategory creates a category at position 0
func NewCategory(id, name string, dishIDs []string) (*Category, error) {
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: category name must be 1-100 characters", ErrValidation)
	}

	now := time.Now().UTC()
	return &Category{ID: id, Name: name, DishIDs: dishIDs, CreatedAt: now, UpdatedAt: now}, nil
}

func (d Dish) Rank() Rank {
	return Rank{ID: d.ID, Position: d.Position, CreatedAt: d.CreatedAt}
}

func (d Dish) WithPosition(position int) Dish {
	d.Position = position
	return d
}

func (m Menu) Rank() Rank {
	return Rank{ID: m.ID, Position: m.Position, CreatedAt: m.CreatedAt}
}

func (m Menu) WithPosition(position int) Menu {
	m.Position = position
	return m
}

func (c Category) Rank() Rank {
	return Rank{ID: c.ID, Position: c.Position, CreatedAt: c.CreatedAt}
}

func (c Category) WithPosition(position int) Category {
	c.Position = position
	return c
}
