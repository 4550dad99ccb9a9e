package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/repository"
)

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) repository.Store {
	return &store{db: db}
}

func (s *store) InTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&storeTx{db: tx})
	})
}

func (s *store) OrderByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (s *store) OrdersByUser(ctx context.Context, userID uint64) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *store) AllOrders(ctx context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *store) UpdateShippingInfo(ctx context.Context, orderID uint64, estimatedDelivery time.Time, trackingNumber string) error {
	return s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"estimated_delivery": estimatedDelivery,
			"tracking_number":    trackingNumber,
		}).Error
}

func (s *store) ProductByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *store) Products(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, 0)
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *store) UserByID(ctx context.Context, id uint64) (*domain.User, error) {
	var u domain.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

type storeTx struct {
	db *gorm.DB
}

func (t *storeTx) ProductForUpdate(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (t *storeTx) SaveProductStock(ctx context.Context, productID uint64, stock int64) error {
	return t.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
}

func (t *storeTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	return t.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (t *storeTx) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return t.db.WithContext(ctx).Omit("Product").Create(item).Error
}

func (t *storeTx) SaveOrder(ctx context.Context, order *domain.Order) error {
	return t.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":       order.Status,
			"total_amount": order.TotalAmount,
		}).Error
}

func (t *storeTx) OrderWithItemsForUpdate(ctx context.Context, orderID uint64) (*domain.Order, error) {
	var o domain.Order
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := t.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("product_id").
		Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
