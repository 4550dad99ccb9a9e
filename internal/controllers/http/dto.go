package http

import "github.com/1lorincer/nomad-task/internal/domain"

type LineItemRequest struct {
	ProductID uint64 `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	Items           []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingCost    int64             `json:"shippingCost" binding:"omitempty,min=0"`
	DeliveryAddress string            `json:"deliveryAddress"`
	Notes           string            `json:"notes"`
}

type CreateOrderResponse struct {
	ID          uint64             `json:"id"`
	TotalAmount int64              `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
