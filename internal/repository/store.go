package repository

import (
	"context"
	"time"

	"github.com/1lorincer/nomad-task/internal/domain"
)

// Tx is the set of operations available inside one durable transaction.
// ProductForUpdate and OrderWithItemsForUpdate take exclusive row locks;
// callers that lock several products must do so in ascending id order.
type Tx interface {
	ProductForUpdate(ctx context.Context, id uint64) (*domain.Product, error)
	SaveProductStock(ctx context.Context, productID uint64, stock int64) error
	CreateOrder(ctx context.Context, order *domain.Order) error
	CreateOrderItem(ctx context.Context, item *domain.OrderItem) error
	SaveOrder(ctx context.Context, order *domain.Order) error
	OrderWithItemsForUpdate(ctx context.Context, orderID uint64) (*domain.Order, error)
}

type Store interface {
	// InTransaction runs fn inside one transaction. Any error from fn
	// rolls the whole transaction back.
	InTransaction(ctx context.Context, fn func(tx Tx) error) error

	OrderByID(ctx context.Context, id uint64) (*domain.Order, error)
	OrdersByUser(ctx context.Context, userID uint64) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)

	// UpdateShippingInfo patches shipping metadata onto an already
	// committed order. It is independent of the order transaction and
	// idempotent.
	UpdateShippingInfo(ctx context.Context, orderID uint64, estimatedDelivery time.Time, trackingNumber string) error

	ProductByID(ctx context.Context, id uint64) (*domain.Product, error)
	Products(ctx context.Context) ([]domain.Product, error)

	UserByID(ctx context.Context, id uint64) (*domain.User, error)
}
