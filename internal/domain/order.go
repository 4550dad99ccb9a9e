package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusRejected  OrderStatus = "rejected"
	StatusCancelled OrderStatus = "cancelled"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
)

// Valid reports whether s is one of the six known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusDelivered
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Order struct {
	ID                uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID            uint64      `json:"userId" gorm:"not null;index;index:idx_user_status"`
	ShippingCost      int64       `json:"shippingCost" gorm:"not null;default:0"`
	TotalAmount       int64       `json:"totalAmount" gorm:"not null;default:0"`
	Status            OrderStatus `json:"status" gorm:"type:enum('pending','confirmed','rejected','cancelled','shipped','delivered');default:'pending';index;index:idx_user_status"`
	DeliveryAddress   string      `json:"deliveryAddress,omitempty" gorm:"type:text"`
	EstimatedDelivery *time.Time  `json:"estimatedDelivery,omitempty"`
	TrackingNumber    string      `json:"trackingNumber,omitempty" gorm:"size:255"`
	Notes             string      `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt         time.Time   `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt         time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem is one line of an order. PriceAtMoment snapshots the product
// price at order time and is never updated afterwards.
type OrderItem struct {
	ID            uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID       uint64 `json:"orderId" gorm:"not null;uniqueIndex:idx_order_product"`
	ProductID     uint64 `json:"productId" gorm:"not null;index;uniqueIndex:idx_order_product"`
	Quantity      int64  `json:"quantity" gorm:"not null"`
	PriceAtMoment int64  `json:"priceAtMoment" gorm:"not null"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// LineItem is a requested (product, quantity) pair before it is
// materialized as an OrderItem.
type LineItem struct {
	ProductID uint64
	Quantity  int64
}
