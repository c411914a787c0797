package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// PaymentActor is recorded as the author of payment-driven transitions.
const PaymentActor = "payment-provider"

// maxNumberAttempts bounds retries when a concurrent create takes the same number.
const maxNumberAttempts = 3

type Service struct {
	repo      interfaces.OrderRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	newID     func() string
}

func NewService(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	order, err := domain.NewOrder(s.newID(), toItems(cmd.Items))
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	for attempt := 1; ; attempt++ {
		number, err := s.repo.GenerateOrderNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate order number: %w", err)
		}
		order.Number = number

		err = s.repo.Create(ctx, order)
		if err == nil {
			break
		}
		if errors.Is(err, domain.ErrDuplicateOrderNumber) && attempt < maxNumberAttempts {
			s.logger.Debug("order_number_taken", "Order number taken, retrying", "", map[string]interface{}{
				"order_number": number,
				"attempt":      attempt,
			})
			continue
		}
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, err
	}

	s.logger.Debug("order_received", "Order created in DB", "", map[string]interface{}{
		"order_number": order.Number,
		"total_price":  order.TotalPrice.StringFixed(2),
	})
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id string, role domain.Role) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanView(role, order.Status) {
		return nil, fmt.Errorf("%s cannot view %s orders: %w", role, order.Status, domain.ErrForbidden)
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, role domain.Role) ([]*domain.Order, error) {
	var visible []domain.Status
	for _, status := range domain.Statuses() {
		if domain.CanView(role, status) {
			visible = append(visible, status)
		}
	}

	if len(visible) == 0 {
		return []*domain.Order{}, nil
	}
	return s.repo.List(ctx, visible)
}

func (s *Service) UpdateItems(ctx context.Context, id string, items []interfaces.CreateOrderItemCommand) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.ReplaceItems(toItems(items)); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// AdvanceOrder moves the order one step. Orders at the end of their chain are
// returned as they are and nothing is written.
func (s *Service) AdvanceOrder(ctx context.Context, id string, role domain.Role, actor string) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanAdvance(role, order.Status) {
		return nil, fmt.Errorf("%s cannot advance %s orders: %w", role, order.Status, domain.ErrForbidden)
	}

	if err := s.advance(ctx, order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, id string, role domain.Role, actor, reason string) (*domain.Order, error) {
	if !domain.CanCancel(role) {
		return nil, fmt.Errorf("%s cannot cancel orders: %w", role, domain.ErrForbidden)
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	changed, err := order.Cancel(actor)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	var notes *string
	if reason != "" {
		notes = &reason
	}

	if err := s.repo.UpdateStatus(ctx, order, from, actor, notes); err != nil {
		return nil, err
	}
	metrics.ObserveTransition(from, order.Status)
	s.notify(ctx, order, from, actor)

	return order, nil
}

func (s *Service) AttachPaymentReference(ctx context.Context, id, reference string) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := order.AttachPaymentReference(reference); err != nil {
		return nil, err
	}

	if err := s.repo.SavePaymentReference(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Debug("payment_reference_attached", "Payment reference stored", "", map[string]interface{}{
		"order_number": order.Number,
	})
	return order, nil
}

// ConfirmPayment finds the order by the provider reference and advances it up
// to PAID. Orders already PAID are handed to the kitchen again; orders past
// PAID are returned unchanged.
func (s *Service) ConfirmPayment(ctx context.Context, reference string) (*domain.Order, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrValidation)
	}

	order, err := s.repo.FindByPaymentHash(ctx, domain.HashPaymentReference(reference))
	if err != nil {
		return nil, err
	}

	switch {
	case order.Status == domain.StatusPaid:
		if err := s.publishToKitchen(ctx, order); err != nil {
			return nil, err
		}
		return order, nil
	case domain.StatusPaid.Precedes(order.Status):
		return order, nil
	case order.Status.Precedes(domain.StatusApproving):
		return nil, fmt.Errorf("order %s is %s, payment not started: %w",
			order.Number, order.Status, domain.ErrInvalidStatusTransition)
	}

	for order.Status != domain.StatusPaid {
		before := order.Status
		if err := s.advance(ctx, order, PaymentActor); err != nil {
			return nil, err
		}
		if order.Status == before {
			return nil, fmt.Errorf("order %s is stuck at %s: %w", order.Number, before, domain.ErrInvalidStatusTransition)
		}
	}
	return order, nil
}

// advance applies one lifecycle step with a conditional write keyed on the
// status the order was read with.
func (s *Service) advance(ctx context.Context, order *domain.Order, actor string) error {
	from, to, changed := order.Advance(actor)
	if !changed {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, order, from, actor, nil); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Debug("status_conflict", "Order status changed concurrently", "", map[string]interface{}{
				"order_number": order.Number,
				"expected":     from,
			})
		}
		return err
	}
	metrics.ObserveTransition(from, to)
	s.notify(ctx, order, from, actor)

	if to == domain.StatusPaid {
		return s.publishToKitchen(ctx, order)
	}
	return nil
}

func (s *Service) publishToKitchen(ctx context.Context, order *domain.Order) error {
	msg := interfaces.OrderMessage{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Items:       order.Items,
		TotalPrice:  order.TotalPrice,
		Priority:    order.Priority,
	}

	if err := s.publisher.PublishOrder(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order", "", nil, err)
		return fmt.Errorf("failed to publish order %s: %w", order.Number, err)
	}

	s.logger.Debug("order_published", "Order published to kitchen queue", "", map[string]interface{}{
		"order_number": order.Number,
		"priority":     order.Priority,
	})
	return nil
}

// notify publishes a status update; failures are logged only.
func (s *Service) notify(ctx context.Context, order *domain.Order, from domain.Status, actor string) {
	msg := interfaces.StatusUpdateMessage{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		OldStatus:   from,
		NewStatus:   order.Status,
		ChangedBy:   actor,
		Timestamp:   order.UpdatedAt,
	}

	if order.Status == domain.StatusInProgress {
		estimated := time.Now().UTC().Add(order.GetCookingTime())
		msg.EstimatedCompletion = &estimated
	}

	if err := s.publisher.PublishStatusUpdate(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", nil, err)
	}
}

func toItems(cmds []interfaces.CreateOrderItemCommand) []domain.OrderItem {
	items := make([]domain.OrderItem, len(cmds))
	for i, c := range cmds {
		items[i] = domain.OrderItem{
			DishID:    c.DishID,
			Name:      c.Name,
			Quantity:  c.Quantity,
			UnitPrice: c.UnitPrice,
		}
	}
	return items
}
