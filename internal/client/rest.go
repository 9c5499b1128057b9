package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/manifest-network/mediaproof/internal/api"
)

// Health is the body of GET /health.
type Health struct {
	Status string `json:"status"`
	Slot   uint64 `json:"slot"`
}

// ErrorBody is the JSON error envelope of the HTTP API.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RESTClient talks to the ledger's HTTP API.
type RESTClient struct {
	http *resty.Client
}

// NewRESTClient retries failed requests up to maxRetries times with backoff.
func NewRESTClient(baseURL string, timeout time.Duration, maxRetries int) *RESTClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		SetError(&ErrorBody{})
	return &RESTClient{http: c}
}

// Health reads GET /health.
func (c *RESTClient) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Blockhash reads GET /blockhash.
func (c *RESTClient) Blockhash(ctx context.Context) (*api.Blockhash, error) {
	var out api.Blockhash
	if err := c.get(ctx, "/blockhash", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Account reads GET /accounts/{address}.
func (c *RESTClient) Account(ctx context.Context, address string) (*api.Account, error) {
	var out api.Account
	if err := c.get(ctx, "/accounts/"+address, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *RESTClient) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().SetContext(ctx).SetResult(out).Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		if body, ok := resp.Error().(*ErrorBody); ok && body.Error != "" {
			return fmt.Errorf("GET %s: %s (%s)", path, body.Error, body.Code)
		}
		return fmt.Errorf("GET %s: unexpected status %s", path, resp.Status())
	}
	return nil
}
