package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/mocks"
	"github.com/1lorincer/nomad-task/internal/repository/memory"
)

func seededStore(t *testing.T) (*memory.Store, uint64) {
	t.Helper()
	store := memory.NewStore()
	store.SeedUser(testUser())
	store.SeedProduct(domain.Product{ID: 1, Title: "Keyboard", Price: 500, Stock: 100})

	svc := newTestOrderService(store, newUnreachableShipping(), newTestQueue(store, newQuietNotifier(), 3))
	order, err := svc.Create(context.Background(), CreateOrderInput{
		UserID: testUserID,
		Items:  []domain.LineItem{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	return store, order.ID
}

func TestNotificationQueue_DeliversOrderCreated(t *testing.T) {
	store, orderID := seededStore(t)

	var sent domain.EmailMessage
	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once().
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(domain.EmailMessage)
		})

	queue := newTestQueue(store, notifier, 3)
	queue.Enqueue(domain.NotificationOrderCreated, domain.EventPayload{OrderID: orderID, UserID: testUserID})
	queue.drainOnce(context.Background())

	notifier.AssertExpectations(t)
	assert.Zero(t, queue.Stats().QueueLength)
	assert.Equal(t, testUserEmail, sent.To)
	assert.Equal(t, "orderCreated", sent.Template)
	assert.Contains(t, sent.Subject, "created")
	assert.Equal(t, testUserName, sent.Data["userName"])
}

func TestNotificationQueue_StatusChangedMessage(t *testing.T) {
	store, orderID := seededStore(t)

	var sent domain.EmailMessage
	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once().
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(domain.EmailMessage)
		})

	queue := newTestQueue(store, notifier, 3)
	queue.Enqueue(domain.NotificationOrderStatusChanged, domain.EventPayload{
		OrderID:   orderID,
		UserID:    testUserID,
		OldStatus: domain.StatusConfirmed,
		NewStatus: domain.StatusShipped,
	})
	queue.drainOnce(context.Background())

	notifier.AssertExpectations(t)
	assert.Equal(t, "orderStatusChanged", sent.Template)
	assert.Contains(t, sent.Subject, "shipped")
	assert.Equal(t, "confirmed", sent.Data["oldStatus"])
}

func TestNotificationQueue_CancelledMessage(t *testing.T) {
	store, orderID := seededStore(t)

	var sent domain.EmailMessage
	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once().
		Run(func(args mock.Arguments) {
			sent = args.Get(1).(domain.EmailMessage)
		})

	queue := newTestQueue(store, notifier, 3)
	queue.Enqueue(domain.NotificationOrderCancelled, domain.EventPayload{OrderID: orderID, UserID: testUserID})
	queue.drainOnce(context.Background())

	notifier.AssertExpectations(t)
	assert.Equal(t, "orderCancelled", sent.Template)
	assert.Contains(t, sent.Subject, "cancelled")
}

func TestNotificationQueue_DeliveryFailureIsTagged(t *testing.T) {
	store, orderID := seededStore(t)

	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp relay down")).Once()

	queue := newTestQueue(store, notifier, 3)
	err := queue.dispatch(context.Background(), &domain.NotificationTask{
		Type:    domain.NotificationOrderCreated,
		Payload: domain.EventPayload{OrderID: orderID, UserID: testUserID},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotificationDelivery)
	assert.Contains(t, err.Error(), "smtp relay down")
	notifier.AssertExpectations(t)

	// Lookup failures are a different class and must not carry the tag.
	err = queue.dispatch(context.Background(), &domain.NotificationTask{
		Type:    domain.NotificationOrderCancelled,
		Payload: domain.EventPayload{OrderID: orderID, UserID: 999},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotificationDelivery)
}

func TestNotificationQueue_RetryBound(t *testing.T) {
	store, orderID := seededStore(t)

	const maxAttempts = 3
	var calls int
	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).
		Return(errors.New("smtp relay down")).
		Run(func(mock.Arguments) { calls++ })

	queue := newTestQueue(store, notifier, maxAttempts)
	queue.Enqueue(domain.NotificationOrderCreated, domain.EventPayload{OrderID: orderID, UserID: testUserID})

	// A few extra cycles beyond the bound must not produce extra attempts.
	for i := 0; i < maxAttempts+2; i++ {
		queue.drainOnce(context.Background())
	}

	assert.Equal(t, maxAttempts, calls, "a failing task is attempted exactly maxAttempts times")
	assert.Zero(t, queue.Stats().QueueLength, "exhausted tasks disappear from the queue")
}

func TestNotificationQueue_RequeuesUntilSuccess(t *testing.T) {
	store, orderID := seededStore(t)

	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	queue := newTestQueue(store, notifier, 3)
	queue.Enqueue(domain.NotificationOrderCreated, domain.EventPayload{OrderID: orderID, UserID: testUserID})

	queue.drainOnce(context.Background())
	stats := queue.Stats()
	require.Equal(t, 1, stats.QueueLength)
	assert.Equal(t, 1, stats.Tasks[0].Attempts)

	queue.drainOnce(context.Background())
	assert.Zero(t, queue.Stats().QueueLength)
	notifier.AssertExpectations(t)
}

func TestNotificationQueue_MissingUserCountsAsFailure(t *testing.T) {
	store := memory.NewStore()

	notifier := new(mocks.MockNotifier)

	queue := newTestQueue(store, notifier, 3)
	queue.Enqueue(domain.NotificationOrderCancelled, domain.EventPayload{OrderID: 1, UserID: 999})
	queue.drainOnce(context.Background())

	stats := queue.Stats()
	require.Equal(t, 1, stats.QueueLength)
	assert.Equal(t, 1, stats.Tasks[0].Attempts)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotificationQueue_ConcurrentEnqueue(t *testing.T) {
	store, orderID := seededStore(t)

	var delivered int
	var deliveredMu sync.Mutex
	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil).
		Run(func(mock.Arguments) {
			deliveredMu.Lock()
			delivered++
			deliveredMu.Unlock()
		})

	queue := newTestQueue(store, notifier, 3)

	const producers = 50
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			queue.Enqueue(domain.NotificationOrderCancelled, domain.EventPayload{OrderID: orderID, UserID: testUserID})
		}()
	}
	wg.Wait()

	queue.drainOnce(context.Background())

	assert.Equal(t, producers, delivered)
	assert.Zero(t, queue.Stats().QueueLength)
}

func TestNotificationQueue_BackgroundWorker(t *testing.T) {
	store, orderID := seededStore(t)

	done := make(chan struct{})
	notifier := new(mocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything).Return(nil).Once().
		Run(func(mock.Arguments) { close(done) })

	queue := NewNotificationQueue(store, notifier, zap.NewNop(), 10*time.Millisecond, 3)
	queue.Start(context.Background())
	defer queue.Stop()

	queue.Enqueue(domain.NotificationOrderCreated, domain.EventPayload{OrderID: orderID, UserID: testUserID})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background worker never delivered the task")
	}

	assert.Eventually(t, func() bool {
		return queue.Stats().QueueLength == 0
	}, time.Second, 10*time.Millisecond)
}

func TestNotificationQueue_Stats(t *testing.T) {
	store, orderID := seededStore(t)

	queue := newTestQueue(store, new(mocks.MockNotifier), 5)
	queue.Enqueue(domain.NotificationOrderCreated, domain.EventPayload{OrderID: orderID, UserID: testUserID})
	queue.Enqueue(domain.NotificationOrderCancelled, domain.EventPayload{OrderID: orderID, UserID: testUserID})

	stats := queue.Stats()
	assert.Equal(t, 2, stats.QueueLength)
	assert.False(t, stats.Processing)
	require.Len(t, stats.Tasks, 2)
	assert.Equal(t, domain.NotificationOrderCreated, stats.Tasks[0].Type)
	assert.Equal(t, domain.NotificationOrderCancelled, stats.Tasks[1].Type)
	assert.NotEmpty(t, stats.Tasks[0].ID)
	assert.Zero(t, stats.Tasks[0].Attempts)
}
