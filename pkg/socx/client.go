package socx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnauthorized is returned when the platform rejects the bearer token.
// Callers surface it as "remote credential invalid", fatal for the whole run.
var ErrUnauthorized = errors.New("socx: unauthorized")

// Config carries per-caller connection parameters. Base URL and token come
// from the caller's stored settings, not from process environment.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is a minimal HTTP client for the SOCX platform API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	debug      bool
}

// NewClient constructs a new SOCX client with sane defaults.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		debug:      os.Getenv("ENV") == "development",
	}
}

// BaseURL returns the configured platform base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// LookupPromos runs a supplier task for one msisdn and returns the promo
// entries. The response envelope varies between task kinds; unknown shapes
// yield an empty list rather than an error.
func (c *Client) LookupPromos(ctx context.Context, task Task, msisdn string) ([]PromoPayload, error) {
	body := taskRequest{ID: task.ID, Name: task.Name, Task: task.Task, Payload: taskPayload{Msisdn: msisdn}}
	raw, err := c.doRequest(ctx, http.MethodPost, "/api/v1/suppliers_modules/task", body)
	if err != nil {
		return nil, err
	}

	items := decodeList(raw)
	promos := make([]PromoPayload, 0, len(items))
	for _, item := range items {
		var p PromoPayload
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		p.Raw = item
		promos = append(promos, p)
	}
	return promos, nil
}

// FindProductByCode fetches the filtered product list and scans for a
// case-insensitive code match. Returns nil when the code is not listed.
func (c *Client) FindProductByCode(ctx context.Context, providersID, categoriesID int, code string) (*CatalogProduct, error) {
	endpoint := fmt.Sprintf("/api/v1/products/filter/%d/%d", providersID, categoriesID)
	raw, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	want := strings.ToUpper(strings.TrimSpace(code))
	for _, item := range decodeList(raw) {
		var p CatalogProduct
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(p.Code)) == want {
			return &p, nil
		}
	}
	return nil, nil
}

// ListAssociations returns all product/module/resale-product links for one
// product.
func (c *Client) ListAssociations(ctx context.Context, productID int) ([]Association, error) {
	endpoint := fmt.Sprintf("/api/v1/products_has_suppliers_modules?products_id=%d", productID)
	raw, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out []Association
	for _, item := range decodeList(raw) {
		var a Association
		if err := json.Unmarshal(item, &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// ListModules returns the seller's modules.
func (c *Client) ListModules(ctx context.Context, sellerID int) ([]Module, error) {
	endpoint := fmt.Sprintf("/api/v1/suppliers_modules/list/%d", sellerID)
	raw, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out []Module
	for _, item := range decodeList(raw) {
		var m Module
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ListResaleProducts returns the seller's resale product list.
func (c *Client) ListResaleProducts(ctx context.Context, sellerID int) ([]ResaleProduct, error) {
	endpoint := fmt.Sprintf("/api/v1/suppliers_products/list/%d", sellerID)
	raw, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var out []ResaleProduct
	for _, item := range decodeList(raw) {
		var r ResaleProduct
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// CreateResaleProduct registers a new resale product for the seller.
func (c *Client) CreateResaleProduct(ctx context.Context, req CreateResaleProductRequest) (*ResaleProduct, error) {
	if req.Status == 0 {
		req.Status = 1
	}
	raw, err := c.doRequest(ctx, http.MethodPost, "/api/v1/suppliers_products", req)
	if err != nil {
		return nil, err
	}
	var created ResaleProduct
	if err := decodeObject(raw, &created); err != nil || created.ID == 0 {
		// Some platform versions return only an ack; re-fetch by code.
		list, listErr := c.ListResaleProducts(ctx, req.SuppliersID)
		if listErr != nil {
			return nil, listErr
		}
		for i := range list {
			if strings.EqualFold(list[i].Code, req.Code) {
				return &list[i], nil
			}
		}
		return nil, fmt.Errorf("socx: resale product %q not found after create", req.Code)
	}
	return &created, nil
}

// UpdateResaleProductPrice patches the price of a resale product.
func (c *Client) UpdateResaleProductPrice(ctx context.Context, id, price int) error {
	endpoint := fmt.Sprintf("/api/v1/suppliers_products/%d", id)
	_, err := c.doRequest(ctx, http.MethodPatch, endpoint, updatePriceRequest{Price: price})
	return err
}

// UpdateProductPrice patches the price of a catalog product.
func (c *Client) UpdateProductPrice(ctx context.Context, id, price int) error {
	endpoint := fmt.Sprintf("/api/v1/products/%d", id)
	_, err := c.doRequest(ctx, http.MethodPatch, endpoint, updatePriceRequest{Price: price})
	return err
}

// CreateAssociation links a product, promo code, module and resale product.
func (c *Client) CreateAssociation(ctx context.Context, req CreateAssociationRequest) error {
	if req.Status == 0 {
		req.Status = 1
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/api/v1/products_has_suppliers_modules", req)
	return err
}

// UpdateAssociationPriority patches the priority of an association.
func (c *Client) UpdateAssociationPriority(ctx context.Context, id, priority int) error {
	endpoint := fmt.Sprintf("/api/v1/products_has_suppliers_modules/%d", id)
	_, err := c.doRequest(ctx, http.MethodPatch, endpoint, updatePriorityRequest{Priority: priority})
	return err
}

// DeleteAssociation removes an association.
func (c *Client) DeleteAssociation(ctx context.Context, id int) error {
	endpoint := fmt.Sprintf("/api/v1/products_has_suppliers_modules/%d", id)
	_, err := c.doRequest(ctx, http.MethodDelete, endpoint, nil)
	return err
}

// VerifyToken checks the bearer token against the platform and returns the
// platform's user payload.
func (c *Client) VerifyToken(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/v1/users/verify", nil)
}

// Do forwards an arbitrary request to the platform and returns the status
// code and raw body. Used by the proxy endpoints.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}) (int, json.RawMessage, error) {
	return c.doRaw(ctx, method, endpoint, body)
}

// doRequest performs an HTTP call and returns the raw response body.
// A 401 maps to ErrUnauthorized; other non-2xx statuses become errors with a
// body snippet for diagnostics.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) (json.RawMessage, error) {
	status, respBody, err := c.doRaw(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if status >= 400 {
		return nil, fmt.Errorf("socx: %s %s returned %d: %s", method, endpoint, status, snippet(respBody))
	}
	return respBody, nil
}

func (c *Client) doRaw(ctx context.Context, method, endpoint string, body interface{}) (int, json.RawMessage, error) {
	var reader io.Reader
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		url = c.baseURL + endpoint
	}

	if c.debug {
		ev := log.Debug().Str("method", method).Str("url", url)
		if payload != nil {
			ev = ev.RawJSON("request", payload)
		}
		ev.Msg("[SOCX] Outgoing request")
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.debug {
		log.Debug().
			Str("url", url).
			Int("status_code", resp.StatusCode).
			Int("body_bytes", len(respBody)).
			Msg("[SOCX] Incoming response")
	}

	return resp.StatusCode, respBody, nil
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
