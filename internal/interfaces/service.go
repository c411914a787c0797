package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// Service contracts (business logic)
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	GetOrder(ctx context.Context, id string, role domain.Role) (*domain.Order, error)
	ListOrders(ctx context.Context, role domain.Role) ([]*domain.Order, error)
	UpdateItems(ctx context.Context, id string, items []CreateOrderItemCommand) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, id string, role domain.Role, actor string) (*domain.Order, error)
	CancelOrder(ctx context.Context, id string, role domain.Role, actor, reason string) (*domain.Order, error)
	AttachPaymentReference(ctx context.Context, id, reference string) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, reference string) (*domain.Order, error)
}

type CatalogService interface {
	CreateDish(ctx context.Context, cmd CreateDishCommand) (*domain.Dish, error)
	CreateMenu(ctx context.Context, cmd CreateGroupCommand) (*domain.Menu, error)
	CreateCategory(ctx context.Context, cmd CreateGroupCommand) (*domain.Category, error)
	ListDishes(ctx context.Context) ([]domain.Dish, error)
	ListMenus(ctx context.Context) ([]domain.Menu, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ReorderDishes(ctx context.Context, instructions []domain.SortInstruction) ([]domain.Dish, error)
	ReorderMenus(ctx context.Context, instructions []domain.SortInstruction) ([]domain.Menu, error)
	ReorderCategories(ctx context.Context, instructions []domain.SortInstruction) ([]domain.Category, error)
}

type KitchenService interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	ProcessOrder(ctx context.Context, msg OrderMessage) error
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderNumber string) (*TrackingOrderResponse, error)
	GetOrderHistory(ctx context.Context, orderNumber string) ([]*domain.StatusLog, error)
	GetWorkersStatus(ctx context.Context) ([]*TrackingWorkerResponse, error)
}

// Tracking responses
type TrackingOrderResponse struct {
	OrderNumber         string
	CurrentStatus       domain.Status
	UpdatedAt           time.Time
	EstimatedCompletion *time.Time
	ProcessedBy         *string
}

type TrackingWorkerResponse struct {
	WorkerName      string
	Status          domain.WorkerStatus
	OrdersProcessed int
	LastSeen        time.Time
}
