package domain

import "errors"

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownStatus           = errors.New("unknown order status")
	ErrUnknownRole             = errors.New("unknown role")
	ErrOrderImmutable          = errors.New("order is immutable in its current status")
	ErrOrderNotFound           = errors.New("order not found")
	ErrEntityNotFound          = errors.New("entity not found")
	ErrWorkerNotFound          = errors.New("worker not found")
	ErrForbidden               = errors.New("role is not allowed to perform this action")
	ErrConflict                = errors.New("concurrent modification detected")
	ErrValidation              = errors.New("validation failed")
	ErrDuplicateOrderNumber    = errors.New("order number already taken")
)
