package interfaces

import (
	"context"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// Repository contracts (adapter/postgres)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	FindByPaymentHash(ctx context.Context, hash string) (*domain.Order, error)
	List(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
	ReplaceItems(ctx context.Context, order *domain.Order) error
	SavePaymentReference(ctx context.Context, order *domain.Order) error
	// UpdateStatus writes order.Status only if the stored status still equals
	// expected, and appends a status log row in the same transaction.
	// It returns domain.ErrConflict when the stored status has moved on.
	UpdateStatus(ctx context.Context, order *domain.Order, expected domain.Status, changedBy string, notes *string) error
	GetStatusHistory(ctx context.Context, orderID string) ([]*domain.StatusLog, error)
}

// RankedRepository stores one sortable catalog collection.
type RankedRepository[T domain.Ranked[T]] interface {
	Create(ctx context.Context, item T) error
	// LoadAll returns the whole collection in its total order.
	LoadAll(ctx context.Context) ([]T, error)
	// SaveAll persists the positions of items and returns them.
	SaveAll(ctx context.Context, items []T) ([]T, error)
	// Reorder loads the collection, applies fn and saves the result while
	// holding the collection's write lock.
	Reorder(ctx context.Context, fn func(current []T) []T) ([]T, error)
}

type WorkerRepository interface {
	Create(ctx context.Context, worker *domain.Worker) error
	FindByName(ctx context.Context, name string) (*domain.Worker, error)
	Update(ctx context.Context, worker *domain.Worker) error
	UpdateHeartbeat(ctx context.Context, name string) error
	ListAll(ctx context.Context) ([]*domain.Worker, error)
	IncrementOrdersProcessed(ctx context.Context, name string) error
}

// CatalogCache keeps serialized catalog listings (adapter/redis)
type CatalogCache interface {
	// Get decodes the cached listing into dest and reports whether it was present.
	Get(ctx context.Context, collection domain.Collection, dest any) (bool, error)
	Set(ctx context.Context, collection domain.Collection, value any) error
	Invalidate(ctx context.Context, collection domain.Collection) error
}
