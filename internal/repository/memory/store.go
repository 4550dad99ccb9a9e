// Package memory holds an in-memory Store used by tests. Transactions are
// serialized under one lock and roll back by restoring a snapshot, which
// gives the same observable semantics as the row-locked MySQL store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	products map[uint64]*domain.Product
	orders   map[uint64]*domain.Order
	users    map[uint64]*domain.User

	nextOrderID   uint64
	nextItemID    uint64
	nextProductID uint64
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		products: map[uint64]*domain.Product{},
		orders:   map[uint64]*domain.Order{},
		users:    map[uint64]*domain.User{},
	}
}

// SeedProduct registers a product, assigning an id when none is set.
func (s *Store) SeedProduct(p domain.Product) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextProductID++
		p.ID = s.nextProductID
	} else if p.ID > s.nextProductID {
		s.nextProductID = p.ID
	}
	cp := p
	s.products[p.ID] = &cp
	return p
}

func (s *Store) SeedUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u
	s.users[u.ID] = &cp
	return u
}

func (s *Store) InTransaction(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapProducts := cloneProducts(s.products)
	snapOrders := cloneOrders(s.orders)
	snapOrderID, snapItemID := s.nextOrderID, s.nextItemID

	if err := fn(&storeTx{s: s}); err != nil {
		s.products = snapProducts
		s.orders = snapOrders
		s.nextOrderID, s.nextItemID = snapOrderID, snapItemID
		return err
	}
	return nil
}

func (s *Store) OrderByID(ctx context.Context, id uint64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return s.orderView(o), nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID uint64) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *s.orderView(o))
		}
	}
	sortOrders(out)
	return out, nil
}

func (s *Store) AllOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		out = append(out, *s.orderView(o))
	}
	sortOrders(out)
	return out, nil
}

func (s *Store) UpdateShippingInfo(ctx context.Context, orderID uint64, estimatedDelivery time.Time, trackingNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil
	}
	ed := estimatedDelivery
	o.EstimatedDelivery = &ed
	o.TrackingNumber = trackingNumber
	o.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ProductByID(ctx context.Context, id uint64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *Store) Products(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UserByID(ctx context.Context, id uint64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// orderView returns a copy with product snapshots attached to items.
func (s *Store) orderView(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		cp.Items[i] = it
		if p, ok := s.products[it.ProductID]; ok {
			pc := *p
			cp.Items[i].Product = &pc
		}
	}
	return &cp
}

type storeTx struct {
	s *Store
}

func (t *storeTx) ProductForUpdate(ctx context.Context, id uint64) (*domain.Product, error) {
	p, ok := t.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (t *storeTx) SaveProductStock(ctx context.Context, productID uint64, stock int64) error {
	if p, ok := t.s.products[productID]; ok {
		p.Stock = stock
		p.UpdatedAt = time.Now()
	}
	return nil
}

func (t *storeTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	t.s.nextOrderID++
	order.ID = t.s.nextOrderID
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	cp := *order
	cp.Items = nil
	t.s.orders[order.ID] = &cp
	return nil
}

func (t *storeTx) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	t.s.nextItemID++
	item.ID = t.s.nextItemID
	o, ok := t.s.orders[item.OrderID]
	if !ok {
		return nil
	}
	cp := *item
	cp.Product = nil
	o.Items = append(o.Items, cp)
	return nil
}

func (t *storeTx) SaveOrder(ctx context.Context, order *domain.Order) error {
	if o, ok := t.s.orders[order.ID]; ok {
		o.Status = order.Status
		o.TotalAmount = order.TotalAmount
		o.UpdatedAt = time.Now()
	}
	return nil
}

func (t *storeTx) OrderWithItemsForUpdate(ctx context.Context, orderID uint64) (*domain.Order, error) {
	o, ok := t.s.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	sort.Slice(cp.Items, func(i, j int) bool { return cp.Items[i].ProductID < cp.Items[j].ProductID })
	return &cp, nil
}

func cloneProducts(in map[uint64]*domain.Product) map[uint64]*domain.Product {
	out := make(map[uint64]*domain.Product, len(in))
	for id, p := range in {
		cp := *p
		out[id] = &cp
	}
	return out
}

func cloneOrders(in map[uint64]*domain.Order) map[uint64]*domain.Order {
	out := make(map[uint64]*domain.Order, len(in))
	for id, o := range in {
		cp := *o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		out[id] = &cp
	}
	return out
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
