package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/infra"
	"github.com/1lorincer/nomad-task/internal/infra/rabbitmq"
	"github.com/1lorincer/nomad-task/internal/repository"
)

const (
	testUserID    = uint64(1)
	testUserEmail = "ivan@example.com"
	testUserName  = "Ivan"
)

func newTestQueue(store repository.Store, notifier rabbitmq.NotifierInterface, maxAttempts int) *NotificationQueue {
	return NewNotificationQueue(store, notifier, zap.NewNop(), time.Hour, maxAttempts)
}

func newTestOrderService(store repository.Store, shipping infra.ShippingClientInterface, queue *NotificationQueue) *OrderService {
	return NewOrderService(store, shipping, queue, zap.NewNop(), 100*time.Millisecond)
}

func testUser() domain.User {
	return domain.User{
		ID:    testUserID,
		Name:  testUserName,
		Email: testUserEmail,
		Role:  domain.RoleCustomer,
	}
}
