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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/catalog"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/httpapi"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/order/domain"
	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/pkg/idempotency"
)

// APIError is a non-2xx answer from the storefront.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// Client talks to one storefront as one shopper. The session id is adopted
// from the first response when it was not set up front.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu        sync.Mutex
	sessionID string
}

func New(baseURL, sessionID string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: 5 * time.Second},
		sessionID: sessionID,
	}
}

func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

type ProductQuery struct {
	Category     string
	Search       string
	Prescription *bool
	InStockOnly  bool
	Sort         catalog.Sort
	Page         int
	PageSize     int
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("category", q.Category)
	set("q", q.Search)
	set("sort", string(q.Sort))
	if q.Prescription != nil {
		v.Set("prescription", strconv.FormatBool(*q.Prescription))
	}
	if q.InStockOnly {
		v.Set("in_stock", "true")
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (catalog.Page, error) {
	var page catalog.Page
	path := "/products"
	if enc := q.values().Encode(); enc != "" {
		path += "?" + enc
	}
	_, err := c.do(ctx, http.MethodGet, path, nil, nil, &page)
	return page, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	_, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

func (c *Client) Cart(ctx context.Context) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodGet, "/cart", nil)
}

func (c *Client) AddItem(ctx context.Context, productID string, quantity int, prescriptionFile, notes string) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/items", map[string]any{
		"product_id":        productID,
		"quantity":          quantity,
		"prescription_file": prescriptionFile,
		"notes":             notes,
	})
}

func (c *Client) UpdateQuantity(ctx context.Context, itemID string, quantity int) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodPatch, "/cart/items/"+url.PathEscape(itemID), map[string]any{"quantity": quantity})
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil)
}

func (c *Client) AttachPrescription(ctx context.Context, itemID, file string) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(itemID)+"/prescription", map[string]any{"file": file})
}

func (c *Client) ApplyCoupon(ctx context.Context, code string) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodPut, "/cart/coupon", map[string]any{"code": code})
}

func (c *Client) RemoveCoupon(ctx context.Context) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart/coupon", nil)
}

func (c *Client) ClearCart(ctx context.Context) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart", nil)
}

func (c *Client) ToggleCart(ctx context.Context) (httpapi.CartView, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart/toggle", nil)
}

func (c *Client) cartCall(ctx context.Context, method, path string, body any) (httpapi.CartView, error) {
	var v httpapi.CartView
	_, err := c.do(ctx, method, path, body, nil, &v)
	return v, err
}

// Checkout places the order. An empty key is replaced by a fresh one, so a
// caller that wants safe retries passes its own.
func (c *Client) Checkout(ctx context.Context, addr domain.Address, idempotencyKey string) (domain.Order, bool, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	var o domain.Order
	resp, err := c.do(ctx, http.MethodPost, "/checkout",
		map[string]any{"shipping_address": addr},
		map[string]string{idempotency.Header: idempotencyKey}, &o)
	if err != nil {
		return domain.Order{}, false, err
	}
	return o, resp.Header.Get(httpapi.ReplayHeader) == "true", nil
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	_, err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &out)
	return out.Orders, err
}

func (c *Client) Order(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	_, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &o)
	return o, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid := c.SessionID(); sid != "" {
		req.Header.Set(httpapi.SessionHeader, sid)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get(httpapi.SessionHeader); sid != "" {
		c.mu.Lock()
		if c.sessionID == "" {
			c.sessionID = sid
		}
		c.mu.Unlock()
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return resp, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}
