package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrOrderNotFound   = errors.New("order not found")
	ErrConflict        = errors.New("order is in a terminal state")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrExternalService = errors.New("external service unavailable")

	ErrNotificationDelivery = errors.New("notification delivery failed")
)

type ProductNotFoundError struct {
	ProductID uint64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductID uint64
	Title     string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (product %d): available %d, requested %d",
		e.Title, e.ProductID, e.Available, e.Requested)
}
