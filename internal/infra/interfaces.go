package infra

import "context"

type ShippingClientInterface interface {
	Estimate(ctx context.Context, orderID uint64, totalAmount int64, address string) (*ShippingEstimate, error)
}

var _ ShippingClientInterface = (*ShippingClient)(nil)
