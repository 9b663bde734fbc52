package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client reads products and services from the backend catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Products lists all catalog products.
func (c *Client) Products(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/products")
}

// Services lists all grooming services.
func (c *Client) Services(ctx context.Context) ([]Record, error) {
	return c.list(ctx, "/services")
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, id string) (*Record, error) {
	return c.get(ctx, "/products/"+id)
}

// Service fetches a single grooming service by id.
func (c *Client) Service(ctx context.Context, id string) (*Record, error) {
	return c.get(ctx, "/services/"+id)
}

func (c *Client) list(ctx context.Context, path string) ([]Record, error) {
	raw, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []wireRecord `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("catalog decode %s: %w", path, err)
	}

	records := make([]Record, 0, len(envelope.Data))
	for _, w := range envelope.Data {
		records = append(records, w.normalize())
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string) (*Record, error) {
	raw, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data wireRecord `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("catalog decode %s: %w", path, err)
	}
	if envelope.Data.ID == "" {
		return nil, fmt.Errorf("catalog record missing id at %s", path)
	}

	rec := envelope.Data.normalize()
	return &rec, nil
}

func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch %s: http=%d body=%s", path, resp.StatusCode, string(raw))
	}

	return raw, nil
}
