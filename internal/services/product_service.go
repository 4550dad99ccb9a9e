package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/repository"
)

const (
	productCacheTTL     = time.Minute
	productListCacheTTL = 10 * time.Second
)

// ProductService serves catalog reads through a redis cache-aside layer.
// Concurrent misses on the same product collapse into one store read.
type ProductService struct {
	store       repository.Store
	redisClient *redis.Client
	sf          singleflight.Group
	log         *zap.Logger
}

func NewProductService(store repository.Store, log *zap.Logger) *ProductService {
	return &ProductService{store: store, log: log}
}

func (s *ProductService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

func (s *ProductService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	cacheKey := fmt.Sprintf("product:%d", id)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (any, error) {
		p, err := s.store.ProductByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
		if s.redisClient != nil {
			if data, err := json.Marshal(p); err == nil {
				s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const cacheKey = "products:all"

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var out []domain.Product
			if err := json.Unmarshal([]byte(cached), &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := s.store.Products(ctx)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(out); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productListCacheTTL)
		}
	}
	return out, nil
}

// WarmupProductCache pre-populates the cache for the given product ids.
func (s *ProductService) WarmupProductCache(ctx context.Context, productIDs []uint64) error {
	if s.redisClient == nil {
		return nil
	}

	for _, id := range productIDs {
		p, err := s.store.ProductByID(ctx, id)
		if err != nil {
			s.log.Warn("failed to warm up cache", zap.Uint64("product_id", id), zap.Error(err))
			continue
		}
		if p != nil {
			cacheKey := fmt.Sprintf("product:%d", id)
			if data, err := json.Marshal(p); err == nil {
				s.redisClient.Set(ctx, cacheKey, data, 5*time.Minute)
			}
		}
	}
	return nil
}
