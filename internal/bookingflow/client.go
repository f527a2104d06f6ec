package bookingflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/brightstay/hotel-bookings/internal/domain"
)

// APIClient talks to the booking service's REST endpoints and satisfies the
// session's PricingClient, BookingClient and StatusClient interfaces.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) Quote(ctx context.Context, req domain.QuoteReq) (domain.PricingBreakdown, error) {
	var out domain.PricingBreakdown
	err := c.postJSON(ctx, "/v1/pricing/quote", req, &out)
	return out, err
}

func (c *APIClient) CreateWithPayment(ctx context.Context, req domain.BookingCreateReq) (domain.BookingCreateRes, error) {
	var out domain.BookingCreateRes
	err := c.postJSON(ctx, "/v1/bookings", req, &out)
	return out, err
}

func (c *APIClient) SessionStatus(ctx context.Context, sessionID string) (domain.PaymentStatusRes, error) {
	var out domain.PaymentStatusRes
	err := c.getJSON(ctx, "/v1/payments/sessions/"+url.PathEscape(sessionID), &out)
	return out, err
}

func (c *APIClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *APIClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *APIClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", req.Method, req.URL.Path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
