package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/infra"
)

type MockShippingClient struct {
	mock.Mock
}

func (m *MockShippingClient) Estimate(ctx context.Context, orderID uint64, totalAmount int64, address string) (*infra.ShippingEstimate, error) {
	args := m.Called(ctx, orderID, totalAmount, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ShippingEstimate), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg domain.EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
