// Package client provides a Go client for the catalog HTTP API and a Loader
// that turns item listings into view state with request cancellation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// DefaultBaseURL is the address the API server listens on by default.
const DefaultBaseURL = "http://localhost:3001"

// DefaultTimeout bounds a single request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// ErrUnexpectedShape is returned when a listing is neither an array nor a
// pagination envelope.
var ErrUnexpectedShape = errors.New("unexpected item listing shape")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// Options selects which items FetchItems asks for. Page and PageSize are
// only sent when both are positive; Q only when non-empty; Limit only when
// non-nil.
type Options struct {
	Page     int
	PageSize int
	Q        string
	Limit    *int
}

// Paginated reports whether the options request an envelope response.
func (o Options) Paginated() bool {
	return o.Page > 0 && o.PageSize > 0
}

// Values encodes the options as query parameters.
func (o Options) Values() url.Values {
	v := url.Values{}
	if o.Paginated() {
		v.Set("page", strconv.Itoa(o.Page))
		v.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.Q != "" {
		v.Set("q", o.Q)
	}
	if o.Limit != nil {
		v.Set("limit", strconv.Itoa(*o.Limit))
	}
	return v
}

// Listing is a decoded GET /api/items response. Pagination is nil when the
// server answered with a bare array.
type Listing struct {
	Items      []model.Item
	Pagination *model.Pagination
}

// Client talks to the catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the API at baseURL. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchItems lists items. The response shape is detected from the body: an
// object carrying a pagination field is an envelope, an array is a bare list.
func (c *Client) FetchItems(ctx context.Context, opts Options) (*Listing, error) {
	path := "/api/items"
	if encoded := opts.Values().Encode(); encoded != "" {
		path += "?" + encoded
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	return decodeListing(raw)
}

// GetItem fetches a single item by id.
func (c *Client) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	if err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem submits a new item. Any id in fields is ignored by the server.
func (c *Client) CreateItem(ctx context.Context, fields map[string]any) (*model.Item, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding item: %w", err)
	}

	var item model.Item
	if err := c.do(ctx, http.MethodPost, "/api/items", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Stats fetches the collection summary.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}

	return nil
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("Failed to fetch: %d", resp.StatusCode),
	}

	var body model.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}

	return apiErr
}

func decodeListing(raw json.RawMessage) (*Listing, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrUnexpectedShape
	}

	switch trimmed[0] {
	case '[':
		var items []model.Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding item list: %w", err)
		}
		return &Listing{Items: nonNil(items)}, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return nil, fmt.Errorf("decoding item page: %w", err)
		}
		if _, ok := fields["pagination"]; !ok {
			return nil, ErrUnexpectedShape
		}

		var page model.ItemPage
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("decoding item page: %w", err)
		}
		return &Listing{Items: nonNil(page.Data), Pagination: page.Pagination}, nil
	default:
		return nil, ErrUnexpectedShape
	}
}

func nonNil(items []model.Item) []model.Item {
	if items == nil {
		return []model.Item{}
	}
	return items
}

// IsCancellation reports whether err stems from a cancelled request.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
