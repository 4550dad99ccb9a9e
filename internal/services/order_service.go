package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/infra"
	"github.com/1lorincer/nomad-task/internal/repository"
)

// OrderService orchestrates order creation and cancellation. All stock
// mutations happen inside one store transaction under exclusive row locks;
// the shipping estimate and notification enqueue run strictly after commit
// and never fail an order.
type OrderService struct {
	store           repository.Store
	shipping        infra.ShippingClientInterface
	queue           *NotificationQueue
	log             *zap.Logger
	shippingTimeout time.Duration
}

func NewOrderService(store repository.Store, shipping infra.ShippingClientInterface, queue *NotificationQueue, log *zap.Logger, shippingTimeout time.Duration) *OrderService {
	return &OrderService{
		store:           store,
		shipping:        shipping,
		queue:           queue,
		log:             log,
		shippingTimeout: shippingTimeout,
	}
}

type CreateOrderInput struct {
	UserID          uint64
	Items           []domain.LineItem
	ShippingCost    int64
	DeliveryAddress string
	Notes           string
}

func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", domain.ErrValidation)
	}
	if in.ShippingCost < 0 {
		return nil, fmt.Errorf("%w: shipping cost cannot be negative", domain.ErrValidation)
	}
	seen := make(map[uint64]struct{}, len(in.Items))
	for _, li := range in.Items {
		if li.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity for product %d must be at least 1", domain.ErrValidation, li.ProductID)
		}
		if _, dup := seen[li.ProductID]; dup {
			return nil, fmt.Errorf("%w: duplicate product %d in order", domain.ErrValidation, li.ProductID)
		}
		seen[li.ProductID] = struct{}{}
	}

	// Lock products in ascending id order so two orders over overlapping
	// product sets cannot deadlock each other.
	items := append([]domain.LineItem(nil), in.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	var order *domain.Order
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		locked := make([]*domain.Product, 0, len(items))
		for _, li := range items {
			p, err := tx.ProductForUpdate(ctx, li.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return &domain.ProductNotFoundError{ProductID: li.ProductID}
			}
			if p.Stock < li.Quantity {
				return &domain.InsufficientStockError{
					ProductID: p.ID,
					Title:     p.Title,
					Available: p.Stock,
					Requested: li.Quantity,
				}
			}
			locked = append(locked, p)
		}

		o := &domain.Order{
			UserID:          in.UserID,
			ShippingCost:    in.ShippingCost,
			Status:          domain.StatusPending,
			DeliveryAddress: in.DeliveryAddress,
			Notes:           in.Notes,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}

		var total int64
		for i, li := range items {
			p := locked[i]
			if err := tx.SaveProductStock(ctx, p.ID, p.Stock-li.Quantity); err != nil {
				return err
			}
			item := domain.OrderItem{
				OrderID:       o.ID,
				ProductID:     p.ID,
				Quantity:      li.Quantity,
				PriceAtMoment: p.Price,
			}
			if err := tx.CreateOrderItem(ctx, &item); err != nil {
				return err
			}
			o.Items = append(o.Items, item)
			total += p.Price * li.Quantity
		}

		o.TotalAmount = total + in.ShippingCost
		o.Status = domain.StatusConfirmed
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.enrichShipping(order.ID, order.TotalAmount, in.DeliveryAddress)

	s.queue.Enqueue(domain.NotificationOrderCreated, domain.EventPayload{
		OrderID: order.ID,
		UserID:  in.UserID,
	})

	s.log.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("user_id", in.UserID),
		zap.Int64("total_amount", order.TotalAmount))
	return order, nil
}

// enrichShipping patches shipping metadata onto an already committed order.
// It runs after commit with its own deadline; failures are logged only.
func (s *OrderService) enrichShipping(orderID uint64, totalAmount int64, address string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.shippingTimeout)
	defer cancel()

	est, err := s.shipping.Estimate(ctx, orderID, totalAmount, address)
	if err != nil {
		s.log.Warn("shipping estimate failed", zap.Uint64("order_id", orderID), zap.Error(err))
		return
	}

	if err := s.store.UpdateShippingInfo(context.Background(), orderID, est.EstimatedDelivery, est.TrackingNumber); err != nil {
		s.log.Warn("failed to store shipping info", zap.Uint64("order_id", orderID), zap.Error(err))
	}
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint64, newStatus domain.OrderStatus) (*domain.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, newStatus)
	}

	var (
		updated *domain.Order
		old     domain.OrderStatus
	)
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		o, err := tx.OrderWithItemsForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrOrderNotFound
		}
		if o.Status.Terminal() {
			return fmt.Errorf("%w: order %d is %s", domain.ErrConflict, o.ID, o.Status)
		}
		old = o.Status
		o.Status = newStatus
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(domain.NotificationOrderStatusChanged, domain.EventPayload{
		OrderID:   updated.ID,
		UserID:    updated.UserID,
		OldStatus: old,
		NewStatus: newStatus,
	})

	s.log.Info("order status updated",
		zap.Uint64("order_id", updated.ID),
		zap.String("old_status", string(old)),
		zap.String("new_status", string(newStatus)))
	return updated, nil
}

func (s *OrderService) Cancel(ctx context.Context, orderID uint64, actor domain.Actor) (*domain.Order, error) {
	var cancelled *domain.Order
	err := s.store.InTransaction(ctx, func(tx repository.Tx) error {
		o, err := tx.OrderWithItemsForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil || !o.Status.Cancellable() {
			return domain.ErrOrderNotFound
		}
		if !actor.Admin() && o.UserID != actor.UserID {
			return domain.ErrOrderNotFound
		}

		// Items come back sorted by product id, same lock order as Create.
		for _, item := range o.Items {
			p, err := tx.ProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				continue
			}
			if err := tx.SaveProductStock(ctx, p.ID, p.Stock+item.Quantity); err != nil {
				return err
			}
		}

		o.Status = domain.StatusCancelled
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.queue.Enqueue(domain.NotificationOrderCancelled, domain.EventPayload{
		OrderID: cancelled.ID,
		UserID:  cancelled.UserID,
	})

	s.log.Info("order cancelled", zap.Uint64("order_id", cancelled.ID))
	return cancelled, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID uint64, actor domain.Actor) (*domain.Order, error) {
	o, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !actor.Admin() && o.UserID != actor.UserID {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	if actor.Admin() {
		return s.store.AllOrders(ctx)
	}
	return s.store.OrdersByUser(ctx, actor.UserID)
}
