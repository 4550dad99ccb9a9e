package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/1lorincer/nomad-task/internal/domain"
)

type ShippingEstimate struct {
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
	TrackingNumber    string    `json:"trackingNumber"`
}

type estimateRequest struct {
	OrderID         uint64 `json:"orderId"`
	TotalAmount     int64  `json:"totalAmount"`
	DeliveryAddress string `json:"deliveryAddress"`
}

// ShippingClient asks the external shipping service for an estimated
// delivery date and tracking number. Every failure mode maps to
// domain.ErrExternalService; callers treat it as non-fatal.
type ShippingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewShippingClient(baseURL string, timeout time.Duration) *ShippingClient {
	return &ShippingClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *ShippingClient) Estimate(ctx context.Context, orderID uint64, totalAmount int64, address string) (*ShippingEstimate, error) {
	body, err := json.Marshal(estimateRequest{
		OrderID:         orderID,
		TotalAmount:     totalAmount,
		DeliveryAddress: address,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/shipping/estimate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: shipping service returned status %d", domain.ErrExternalService, resp.StatusCode)
	}

	var est ShippingEstimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	return &est, nil
}
