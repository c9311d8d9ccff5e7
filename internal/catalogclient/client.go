// Package catalogclient reads the fill-work catalog from the REST API and
// serves it to a resolver.
package catalogclient

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

	"go.uber.org/zap"

	"github.com/tzlun5274/mes-system/internal/config"
	"github.com/tzlun5274/mes-system/internal/csrf"
	"github.com/tzlun5274/mes-system/internal/resolver"
)

const defaultTimeout = 30 * time.Second

// Client implements resolver.Source over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu        sync.RWMutex
	csrfToken string
}

var _ resolver.Source = (*Client)(nil)

// New creates a client for the API rooted at baseURL+prefix, for example
// "http://localhost:8080" and "/api/v1/fill-work".
func New(baseURL, prefix string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/" + strings.Trim(prefix, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NewFromConfig creates a client from the resolver configuration.
func NewFromConfig(cfg config.ResolverConfig, logger *zap.Logger) *Client {
	return New(cfg.BaseURL, cfg.APIPrefix, cfg.RequestTimeout, logger)
}

// SetCSRFToken sets the token sent in the X-CSRFToken header.
func (c *Client) SetCSRFToken(token string) {
	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
}

// FetchCSRFToken obtains a token from the csrf-token endpoint and uses it for
// subsequent requests.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	env, err := c.get(ctx, "csrf-token", nil)
	if err != nil {
		return "", err
	}
	var token string
	if raw, ok := env["csrf_token"]; ok {
		_ = json.Unmarshal(raw, &token)
	}
	if token == "" {
		return "", &resolver.DataShapeError{Endpoint: "csrf-token", Reason: "csrf_token missing"}
	}
	c.SetCSRFToken(token)
	return token, nil
}

// WorkOrders fetches the whole work-order catalog.
func (c *Client) WorkOrders(ctx context.Context) ([]resolver.WorkOrder, error) {
	return c.workOrders(ctx, "workorder-list", nil)
}

// WorkOrdersByProduct fetches the work orders producing product.
func (c *Client) WorkOrdersByProduct(ctx context.Context, product string) ([]resolver.WorkOrder, error) {
	return c.workOrders(ctx, "workorder-by-product", url.Values{"product_id": {product}})
}

// Products fetches the products of company, or every product when company is empty.
func (c *Client) Products(ctx context.Context, company string) ([]string, error) {
	endpoint, query := "product-list", url.Values(nil)
	if company != "" {
		endpoint, query = "products-by-company", url.Values{"company_name": {company}}
	}

	items, err := c.list(ctx, endpoint, query, "products")
	if err != nil {
		return nil, err
	}
	products := make([]string, 0, len(items))
	for _, raw := range items {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			var entry struct {
				ProductID string `json:"product_id"`
			}
			if err := json.Unmarshal(raw, &entry); err != nil {
				return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("invalid product entry %s", raw)}
			}
			name = entry.ProductID
		}
		if name = strings.TrimSpace(name); name != "" {
			products = append(products, name)
		}
	}
	return products, nil
}

// Operators fetches the operator names offered to formType.
func (c *Client) Operators(ctx context.Context, formType string) ([]string, error) {
	return c.names(ctx, "operator-list", "operators", formType)
}

// Processes fetches the process names offered to formType.
func (c *Client) Processes(ctx context.Context, formType string) ([]string, error) {
	return c.names(ctx, "process-list", "processes", formType)
}

// Equipment fetches the equipment names offered to formType.
func (c *Client) Equipment(ctx context.Context, formType string) ([]string, error) {
	return c.names(ctx, "equipment-list", "equipments", formType)
}

func (c *Client) names(ctx context.Context, endpoint, key, formType string) ([]string, error) {
	items, err := c.list(ctx, endpoint, url.Values{"form_type": {formType}}, key)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(items))
	for _, raw := range items {
		var entry struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("invalid %s entry %s", key, raw)}
		}
		if entry.Name != "" {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}

// wireWorkOrder accepts both the current and the legacy work-order key, and a
// planned quantity sent as a number or a numeric string.
type wireWorkOrder struct {
	WorkOrderID     string          `json:"workorder_id"`
	WorkOrder       string          `json:"workorder"`
	CompanyName     string          `json:"company_name"`
	ProductID       string          `json:"product_id"`
	PlannedQuantity json.RawMessage `json:"planned_quantity"`
}

func (c *Client) workOrders(ctx context.Context, endpoint string, query url.Values) ([]resolver.WorkOrder, error) {
	items, err := c.list(ctx, endpoint, query, "workorders")
	if err != nil {
		return nil, err
	}

	records := make([]resolver.WorkOrder, 0, len(items))
	for _, raw := range items {
		var w wireWorkOrder
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: fmt.Sprintf("invalid work order %s", raw)}
		}
		id := w.WorkOrderID
		if id == "" {
			id = w.WorkOrder
		}
		if id == "" {
			continue
		}
		records = append(records, resolver.WorkOrder{
			ID:              id,
			Company:         w.CompanyName,
			Product:         w.ProductID,
			PlannedQuantity: quantity(w.PlannedQuantity),
		})
	}
	return records, nil
}

func quantity(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if v, err := n.Int64(); err == nil {
		return int(v)
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		return int(f)
	}
	return 0
}

// list fetches endpoint and returns the elements of the array under key.
func (c *Client) list(ctx context.Context, endpoint string, query url.Values, key string) ([]json.RawMessage, error) {
	env, err := c.get(ctx, endpoint, query)
	if err != nil {
		return nil, err
	}
	raw, ok := env[key]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: key + " missing"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: err.Error()}
	}
	return items, nil
}

// get performs the request and returns the top-level fields of a successful
// response envelope.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (map[string]json.RawMessage, error) {
	target := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &resolver.NetworkError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	if c.csrfToken != "" {
		req.Header.Set(csrf.HeaderName, c.csrfToken)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &resolver.NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &resolver.NetworkError{Endpoint: endpoint, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	c.logger.Debug("catalog request",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &resolver.NetworkError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: "response is not a JSON object"}
	}
	var success bool
	if raw, ok := env["success"]; !ok || json.Unmarshal(raw, &success) != nil || !success {
		reason := "success is false"
		var msg string
		if raw, ok := env["message"]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
			reason += ": " + msg
		}
		return nil, &resolver.DataShapeError{Endpoint: endpoint, Reason: reason}
	}
	return env, nil
}
