package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restaurant/internal/domain"
)

// RabbitMQ messages
type OrderMessage struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Items       []domain.OrderItem `json:"items"`
	TotalPrice  decimal.Decimal    `json:"total_price"`
	Priority    domain.Priority    `json:"priority"`
}

type StatusUpdateMessage struct {
	OrderID             string        `json:"order_id"`
	OrderNumber         string        `json:"order_number"`
	OldStatus           domain.Status `json:"old_status"`
	NewStatus           domain.Status `json:"new_status"`
	ChangedBy           string        `json:"changed_by"`
	Timestamp           time.Time     `json:"timestamp"`
	EstimatedCompletion *time.Time    `json:"estimated_completion,omitempty"`
}

// Service commands
type CreateOrderCommand struct {
	Items []CreateOrderItemCommand
}

type CreateOrderItemCommand struct {
	DishID    string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateDishCommand struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

type CreateGroupCommand struct {
	Name    string
	DishIDs []string
}

// Messaging contracts (adapter/rabbitmq)
type MessagePublisher interface {
	PublishOrder(ctx context.Context, msg OrderMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	OrderMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler func(ctx context.Context, body []byte) error
)
