package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/1lorincer/nomad-task/internal/domain"
	"github.com/1lorincer/nomad-task/internal/services"
)

type Handler struct {
	orders   *services.OrderService
	products *services.ProductService
	queue    *services.NotificationQueue
	rdb      *redis.Client
	log      *zap.Logger
}

func NewHandler(orders *services.OrderService, products *services.ProductService, queue *services.NotificationQueue, rdb *redis.Client, log *zap.Logger) *Handler {
	return &Handler{orders: orders, products: products, queue: queue, rdb: rdb, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, jwtSecret string) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	auth := r.Group("/", AuthMiddleware(jwtSecret))
	auth.POST("/orders", h.CreateOrder)
	auth.GET("/orders", h.ListOrders)
	auth.GET("/orders/:id", h.GetOrder)
	auth.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	auth.PATCH("/orders/:id/cancel", h.CancelOrder)
	auth.GET("/notifications/stats", h.QueueStats)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := actorFrom(c)

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	order, err := h.orders.Create(c.Request.Context(), services.CreateOrderInput{
		UserID:          actor.UserID,
		Items:           items,
		ShippingCost:    req.ShippingCost,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.invalidateOrderCache(actor.UserID)

	c.JSON(http.StatusCreated, CreateOrderResponse{
		ID:          order.ID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	actor := actorFrom(c)
	ctx := c.Request.Context()

	cacheKey := fmt.Sprintf("orders:user:%d", actor.UserID)
	if h.rdb != nil && !actor.Admin() {
		if b, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var orders []domain.Order
			if err := json.Unmarshal([]byte(b), &orders); err == nil {
				c.JSON(http.StatusOK, orders)
				return
			}
		}
	}

	orders, err := h.orders.List(ctx, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if h.rdb != nil && !actor.Admin() {
		if data, err := json.Marshal(orders); err == nil {
			h.rdb.Set(ctx, cacheKey, data, 10*time.Second)
		}
	}

	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	actor := actorFrom(c)
	if !actor.Admin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.invalidateOrderCache(order.UserID)

	c.JSON(http.StatusOK, gin.H{"id": order.ID, "status": order.Status})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	actor := actorFrom(c)
	order, err := h.orders.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.invalidateOrderCache(order.UserID)

	c.JSON(http.StatusOK, gin.H{"id": order.ID, "status": order.Status})
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		var notFound *domain.ProductNotFoundError
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) QueueStats(c *gin.Context) {
	if !actorFrom(c).Admin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	c.JSON(http.StatusOK, h.queue.Stats())
}

func (h *Handler) invalidateOrderCache(userID uint64) {
	if h.rdb == nil {
		return
	}
	h.rdb.Del(context.Background(), fmt.Sprintf("orders:user:%d", userID))
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var (
		notFound     *domain.ProductNotFoundError
		insufficient *domain.InsufficientStockError
	)
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.As(err, &notFound),
		errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
