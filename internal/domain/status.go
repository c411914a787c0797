package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle status of an order
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusCheckout   Status = "CHECKOUT"
	StatusApproving  Status = "APPROVING"
	StatusApproved   Status = "APPROVED"
	StatusPaid       Status = "PAID"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// statusTraits is the fixed metadata attached to every status.
type statusTraits struct {
	rank            int
	final           bool
	immutable       bool
	kitchenVisible  bool
	cashierVisible  bool
	customerVisible bool
	next            Status
}

var statusTable = map[Status]statusTraits{
	StatusPending:    {rank: 0, next: StatusCheckout},
	StatusCheckout:   {rank: 1, next: StatusApproving},
	StatusApproving:  {rank: 2, next: StatusApproved},
	StatusApproved:   {rank: 3, final: true, immutable: true, next: StatusPaid},
	StatusPaid:       {rank: 4, final: true, immutable: true, kitchenVisible: true, next: StatusInProgress},
	StatusInProgress: {rank: 5, immutable: true, kitchenVisible: true, customerVisible: true, next: StatusReady},
	StatusReady:      {rank: 6, immutable: true, cashierVisible: true, customerVisible: true, next: StatusDelivered},
	StatusDelivered:  {rank: 7, final: true, immutable: true, cashierVisible: true, next: StatusDelivered},
	StatusCancelled:  {rank: 8, final: true, immutable: true, next: StatusCancelled},
}

var orderedStatuses = []Status{
	StatusPending,
	StatusCheckout,
	StatusApproving,
	StatusApproved,
	StatusPaid,
	StatusInProgress,
	StatusReady,
	StatusDelivered,
	StatusCancelled,
}

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(orderedStatuses))
	copy(out, orderedStatuses)
	return out
}

// ParseStatus converts a raw value into a known status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := statusTable[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// IsFinal reports whether no further forward progression happens from s.
func IsFinal(s Status) bool { return statusTable[s].final }

// IsImmutable reports whether an order in s is read-only.
func IsImmutable(s Status) bool { return statusTable[s].immutable }

func IsKitchenVisible(s Status) bool { return statusTable[s].kitchenVisible }

func IsCashierVisible(s Status) bool { return statusTable[s].cashierVisible }

func IsCustomerVisible(s Status) bool { return statusTable[s].customerVisible }

// Advance returns the single successor of s along the linear chain.
// DELIVERED and CANCELLED map to themselves, as does any unknown value.
func Advance(s Status) Status {
	t, ok := statusTable[s]
	if !ok {
		return s
	}
	return t.next
}

// Cancel is the explicit out-of-band transition to CANCELLED. It is allowed
// from every non-final status and is a no-op on an already cancelled order.
func Cancel(s Status) (Status, error) {
	if s == StatusCancelled {
		return StatusCancelled, nil
	}
	if _, ok := statusTable[s]; !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownStatus, string(s))
	}
	if IsFinal(s) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, StatusCancelled)
	}
	return StatusCancelled, nil
}

// Precedes reports whether s comes strictly before other in lifecycle order.
func (s Status) Precedes(other Status) bool {
	a, okA := statusTable[s]
	b, okB := statusTable[other]
	return okA && okB && a.rank < b.rank
}

func (s Status) String() string { return string(s) }

// StatusLog represents a log entry for order status changes
type StatusLog struct {
	ID        int
	OrderID   string
	Status    Status
	ChangedBy string
	ChangedAt time.Time
	Notes     *string
}
