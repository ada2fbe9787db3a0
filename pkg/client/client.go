// Package client is a caching Go client for the inventory product API.
//
// Reads are cached per (resource, params); every successful create, update
// or delete drops everything cached under the products resource.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"inventory/internal/cache"
	"inventory/internal/models"
)

// ProductsResource is the cache namespace shared by every product query.
const ProductsResource = "products"

// DefaultCacheTTL is how long query results are reused.
const DefaultCacheTTL = 5 * time.Minute

// Client calls the product endpoints of an inventory server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      cache.Store
	cacheTTL   time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache replaces the query cache. Pass cache.NewNoopStore() to disable it.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(c *Client) {
		if store != nil {
			c.cache = store
		}
		c.cacheTTL = ttl
	}
}

// New returns a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.NewMemoryStore(),
		cacheTTL:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func pageKey(page, limit int) string {
	return fmt.Sprintf("page=%d&limit=%d", page, limit)
}

func idKey(id uint) string {
	return "id=" + strconv.FormatUint(uint64(id), 10)
}

// ListProducts returns one page of products.
func (c *Client) ListProducts(ctx context.Context, page, limit int) (*models.ProductPage, error) {
	q := url.Values{}
	PageState{Page: page, Limit: limit}.Apply(q)

	var out models.ProductPage
	if err := c.query(ctx, pageKey(page, limit), "/products?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProduct returns the product with id.
func (c *Client) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var out models.Product
	if err := c.query(ctx, idKey(id), productPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	var out models.Product
	if err := c.mutate(ctx, http.MethodPost, "/products", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProduct replaces the editable fields of product id.
func (c *Client) UpdateProduct(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	var out models.Product
	if err := c.mutate(ctx, http.MethodPut, productPath(id), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct deletes product id.
func (c *Client) DeleteProduct(ctx context.Context, id uint) error {
	return c.mutate(ctx, http.MethodDelete, productPath(id), nil, nil)
}

// Invalidate drops every cached product query.
func (c *Client) Invalidate(ctx context.Context) error {
	return c.cache.InvalidateNamespace(ctx, ProductsResource)
}

func productPath(id uint) string {
	return "/products/" + strconv.FormatUint(uint64(id), 10)
}

func (c *Client) query(ctx context.Context, key, path string, out any) error {
	gen, genErr := c.cache.Generation(ctx, ProductsResource)
	key = cache.VersionedKey(gen, key)
	if genErr == nil {
		if raw, ok, err := c.cache.Get(ctx, ProductsResource, key); err == nil && ok {
			if err := json.Unmarshal(raw, out); err == nil {
				return nil
			}
		}
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if genErr == nil {
		// A failed cache write only costs a refetch.
		_ = c.cache.Set(ctx, ProductsResource, key, raw, c.cacheTTL)
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := c.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate product cache: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp.StatusCode, raw)
	}
	return raw, nil
}
