package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1lorincer/nomad-task/internal/domain"
)

func TestShippingClient_Estimate(t *testing.T) {
	delivery := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/shipping/estimate", r.URL.Path)

		var req struct {
			OrderID         uint64 `json:"orderId"`
			TotalAmount     int64  `json:"totalAmount"`
			DeliveryAddress string `json:"deliveryAddress"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint64(7), req.OrderID)
		assert.Equal(t, int64(1100), req.TotalAmount)
		assert.Equal(t, "Almaty, Abay ave 1", req.DeliveryAddress)

		json.NewEncoder(w).Encode(ShippingEstimate{
			EstimatedDelivery: delivery,
			TrackingNumber:    "AB12CD34EF",
		})
	}))
	defer srv.Close()

	client := NewShippingClient(srv.URL, time.Second)
	est, err := client.Estimate(context.Background(), 7, 1100, "Almaty, Abay ave 1")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34EF", est.TrackingNumber)
	assert.True(t, est.EstimatedDelivery.Equal(delivery))
}

func TestShippingClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewShippingClient(srv.URL, time.Second)
	est, err := client.Estimate(context.Background(), 7, 1100, "")
	assert.Nil(t, est)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestShippingClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewShippingClient(srv.URL, 50*time.Millisecond)
	est, err := client.Estimate(context.Background(), 7, 1100, "")
	assert.Nil(t, est)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestShippingClient_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewShippingClient(srv.URL, time.Second)
	_, err := client.Estimate(context.Background(), 7, 1100, "")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}
