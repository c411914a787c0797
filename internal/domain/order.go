package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	minItemPrice = decimal.RequireFromString("0.01")
	maxItemPrice = decimal.RequireFromString("999.99")
)

// Order represents a restaurant order entity
type Order struct {
	ID                   string
	Number               string
	Items                []OrderItem
	TotalPrice           decimal.Decimal
	Priority             Priority
	Status               Status
	PaymentReference     *string
	PaymentReferenceHash *string
	ProcessedBy          *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	CompletedAt          *time.Time
}

// OrderItem represents an item in an order
type OrderItem struct {
	ID        int
	OrderID   string
	DishID    string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Priority drives delivery priority on the kitchen queue
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 5
	PriorityHigh   Priority = 10
)

// Subtotal is the unit price times the quantity
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder creates a new pending order with business rules applied
func NewOrder(id string, items []OrderItem) (*Order, error) {
	now := time.Now().UTC()
	order := &Order{
		ID:        id,
		Items:     items,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	order.RecalculateTotal()
	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if len(o.Items) < 1 || len(o.Items) > 20 {
		return fmt.Errorf("%w: order must have 1-20 items", ErrValidation)
	}

	for _, item := range o.Items {
		if len(item.Name) < 1 || len(item.Name) > 50 {
			return fmt.Errorf("%w: item name must be 1-50 characters", ErrValidation)
		}
		if item.Quantity < 1 || item.Quantity > 10 {
			return fmt.Errorf("%w: item quantity must be 1-10", ErrValidation)
		}
		if item.UnitPrice.LessThan(minItemPrice) || item.UnitPrice.GreaterThan(maxItemPrice) {
			return fmt.Errorf("%w: item price must be 0.01-999.99", ErrValidation)
		}
	}

	return nil
}

// Total sums the item subtotals
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// RecalculateTotal overwrites TotalPrice and Priority from the items
func (o *Order) RecalculateTotal() {
	o.TotalPrice = o.Total()
	o.DeterminePriority()
}

// DeterminePriority determines the priority based on total amount
func (o *Order) DeterminePriority() {
	switch {
	case o.TotalPrice.GreaterThan(decimal.NewFromInt(100)):
		o.Priority = PriorityHigh
	case o.TotalPrice.GreaterThanOrEqual(decimal.NewFromInt(50)):
		o.Priority = PriorityMedium
	default:
		o.Priority = PriorityLow
	}
}

// IsImmutable reports whether business fields of the order are frozen
func (o *Order) IsImmutable() bool {
	return IsImmutable(o.Status)
}

// ReplaceItems swaps the order lines and recomputes the total
func (o *Order) ReplaceItems(items []OrderItem) error {
	if o.IsImmutable() {
		return ErrOrderImmutable
	}

	prev := o.Items
	o.Items = items
	if err := o.Validate(); err != nil {
		o.Items = prev
		return err
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	o.RecalculateTotal()
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// AttachPaymentReference records the provider checkout-session reference
func (o *Order) AttachPaymentReference(ref string) error {
	if o.IsImmutable() {
		return ErrOrderImmutable
	}
	if ref == "" {
		return fmt.Errorf("%w: payment reference is required", ErrValidation)
	}

	o.PaymentReference = &ref
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Advance moves the order one step along the lifecycle. At the end of the
// chain the status is left untouched and changed is false.
func (o *Order) Advance(actor string) (from, to Status, changed bool) {
	from = o.Status
	to = Advance(from)
	if to == from {
		return from, to, false
	}

	o.apply(to, actor)
	return from, to, true
}

// Cancel moves the order to CANCELLED when the current status allows it
func (o *Order) Cancel(actor string) (changed bool, err error) {
	to, err := Cancel(o.Status)
	if err != nil {
		return false, err
	}
	if to == o.Status {
		return false, nil
	}

	o.apply(to, actor)
	return true, nil
}

func (o *Order) apply(to Status, actor string) {
	now := time.Now().UTC()
	o.Status = to
	o.UpdatedAt = now

	if actor != "" {
		o.ProcessedBy = &actor
	}

	if to == StatusDelivered {
		o.CompletedAt = &now
	}
}

// GetCookingTime returns the simulated cooking time based on order size
func (o *Order) GetCookingTime() time.Duration {
	quantity := 0
	for _, item := range o.Items {
		quantity += item.Quantity
	}

	switch {
	case quantity <= 2:
		return 8 * time.Second
	case quantity <= 6:
		return 10 * time.Second
	default:
		return 12 * time.Second
	}
}

// IsNotFound reports whether err marks a missing order or catalog entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrEntityNotFound) || errors.Is(err, ErrWorkerNotFound)
}
