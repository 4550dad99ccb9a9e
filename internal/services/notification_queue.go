package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/infra/rabbitmq"
	"github.com/1lorincer/nomad-task/internal/repository"
)

var statusNames = map[domain.OrderStatus]string{
	domain.StatusPending:   "awaiting confirmation",
	domain.StatusConfirmed: "confirmed",
	domain.StatusRejected:  "rejected",
	domain.StatusCancelled: "cancelled",
	domain.StatusShipped:   "shipped",
	domain.StatusDelivered: "delivered",
}

// NotificationQueue delivers order-lifecycle events to the notifier with
// bounded retries. A single background worker drains a snapshot of the
// queue each cycle, so no two drain passes ever overlap. Delivery is
// at-least-once; a task that keeps failing is dropped after MaxAttempts.
type NotificationQueue struct {
	store       repository.Store
	notifier    rabbitmq.NotifierInterface
	log         *zap.Logger
	interval    time.Duration
	maxAttempts int

	mu       sync.Mutex
	tasks    []*domain.NotificationTask
	draining bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewNotificationQueue(store repository.Store, notifier rabbitmq.NotifierInterface, log *zap.Logger, interval time.Duration, maxAttempts int) *NotificationQueue {
	return &NotificationQueue{
		store:       store,
		notifier:    notifier,
		log:         log,
		interval:    interval,
		maxAttempts: maxAttempts,
		wake:        make(chan struct{}, 1),
	}
}

// Start launches the drain worker. Stop must be called before Start may be
// called again.
func (q *NotificationQueue) Start(ctx context.Context) {
	q.stop = make(chan struct{})
	q.done = make(chan struct{})
	go q.run(ctx)
}

func (q *NotificationQueue) Stop() {
	if q.stop == nil {
		return
	}
	close(q.stop)
	<-q.done
	q.stop = nil
}

func (q *NotificationQueue) run(ctx context.Context) {
	defer close(q.done)
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-q.wake:
		}
		q.drainOnce(ctx)
	}
}

// Enqueue appends a task and signals the worker. It never blocks the
// caller, even while a drain pass is in progress.
func (q *NotificationQueue) Enqueue(typ domain.NotificationType, payload domain.EventPayload) {
	task := &domain.NotificationTask{
		ID:          uuid.NewString(),
		Type:        typ,
		Payload:     payload,
		MaxAttempts: q.maxAttempts,
		CreatedAt:   time.Now(),
	}

	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	q.log.Debug("notification task enqueued",
		zap.String("task_id", task.ID),
		zap.String("type", string(typ)),
		zap.Uint64("order_id", payload.OrderID))
}

// drainOnce attempts delivery of the current snapshot. Failed tasks that
// still have attempts left are appended after whatever was enqueued during
// the pass.
func (q *NotificationQueue) drainOnce(ctx context.Context) {
	q.mu.Lock()
	if q.draining || len(q.tasks) == 0 {
		q.mu.Unlock()
		return
	}
	q.draining = true
	snapshot := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	var failed []*domain.NotificationTask
	for _, task := range snapshot {
		if err := q.dispatch(ctx, task); err != nil {
			task.Attempts++
			q.log.Warn("notification delivery failed",
				zap.String("task_id", task.ID),
				zap.String("type", string(task.Type)),
				zap.Int("attempt", task.Attempts),
				zap.Error(err))
			if task.Attempts < task.MaxAttempts {
				failed = append(failed, task)
			} else {
				q.log.Error("notification task dropped after max attempts",
					zap.String("task_id", task.ID),
					zap.String("type", string(task.Type)),
					zap.Int("attempts", task.Attempts))
			}
			continue
		}
		q.log.Debug("notification delivered",
			zap.String("task_id", task.ID),
			zap.String("type", string(task.Type)))
	}

	q.mu.Lock()
	q.tasks = append(q.tasks, failed...)
	q.draining = false
	q.mu.Unlock()
}

func (q *NotificationQueue) dispatch(ctx context.Context, task *domain.NotificationTask) error {
	switch task.Type {
	case domain.NotificationOrderCreated:
		return q.sendOrderCreated(ctx, task.Payload)
	case domain.NotificationOrderStatusChanged:
		return q.sendOrderStatusChanged(ctx, task.Payload)
	case domain.NotificationOrderCancelled:
		return q.sendOrderCancelled(ctx, task.Payload)
	default:
		return fmt.Errorf("unknown notification type %q", task.Type)
	}
}

// send hands the message to the notifier, tagging failures so they are
// distinguishable from lookup errors in the logs.
func (q *NotificationQueue) send(ctx context.Context, msg domain.EmailMessage) error {
	if err := q.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotificationDelivery, err)
	}
	return nil
}

func (q *NotificationQueue) sendOrderCreated(ctx context.Context, p domain.EventPayload) error {
	user, err := q.store.UserByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	order, err := q.store.OrderByID(ctx, p.OrderID)
	if err != nil {
		return err
	}
	if user == nil || order == nil {
		return fmt.Errorf("user %d or order %d not found", p.UserID, p.OrderID)
	}

	return q.send(ctx, domain.EmailMessage{
		To:       user.Email,
		Subject:  fmt.Sprintf("Order #%d created", order.ID),
		Template: "orderCreated",
		Data: map[string]any{
			"userName":          user.Name,
			"orderId":           order.ID,
			"totalAmount":       order.TotalAmount,
			"estimatedDelivery": order.EstimatedDelivery,
		},
	})
}

func (q *NotificationQueue) sendOrderStatusChanged(ctx context.Context, p domain.EventPayload) error {
	user, err := q.store.UserByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d not found", p.UserID)
	}

	name := statusNames[p.NewStatus]
	return q.send(ctx, domain.EmailMessage{
		To:       user.Email,
		Subject:  fmt.Sprintf("Order #%d - %s", p.OrderID, name),
		Template: "orderStatusChanged",
		Data: map[string]any{
			"userName":  user.Name,
			"orderId":   p.OrderID,
			"oldStatus": string(p.OldStatus),
			"newStatus": name,
		},
	})
}

func (q *NotificationQueue) sendOrderCancelled(ctx context.Context, p domain.EventPayload) error {
	user, err := q.store.UserByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %d not found", p.UserID)
	}

	return q.send(ctx, domain.EmailMessage{
		To:       user.Email,
		Subject:  fmt.Sprintf("Order #%d cancelled", p.OrderID),
		Template: "orderCancelled",
		Data: map[string]any{
			"userName": user.Name,
			"orderId":  p.OrderID,
		},
	})
}

type TaskStat struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Attempts  int                     `json:"attempts"`
	CreatedAt time.Time               `json:"createdAt"`
}

type QueueStats struct {
	QueueLength int        `json:"queueLength"`
	Processing  bool       `json:"processing"`
	Tasks       []TaskStat `json:"tasks"`
}

func (q *NotificationQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := QueueStats{
		QueueLength: len(q.tasks),
		Processing:  q.draining,
		Tasks:       make([]TaskStat, 0, len(q.tasks)),
	}
	for _, t := range q.tasks {
		stats.Tasks = append(stats.Tasks, TaskStat{
			ID:        t.ID,
			Type:      t.Type,
			Attempts:  t.Attempts,
			CreatedAt: t.CreatedAt,
		})
	}
	return stats
}
