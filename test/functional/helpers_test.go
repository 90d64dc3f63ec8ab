//go:build functional

// Package functional provides black-box functional tests for the catalog API.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/config"
	"github.com/vyrodovalexey/catalog-api/internal/model"
	"github.com/vyrodovalexey/catalog-api/internal/server"
	"github.com/vyrodovalexey/catalog-api/internal/service"
	"github.com/vyrodovalexey/catalog-api/internal/store"
)

// Environment variable names for test configuration.
const (
	EnvTestServerHost    = "TEST_SERVER_HOST"
	EnvTestServerPort    = "TEST_SERVER_PORT"
	EnvTestTimeout       = "TEST_TIMEOUT"
	EnvTestMetricsEnable = "TEST_METRICS_ENABLED"
)

// Default test configuration values.
const (
	DefaultTestHost        = "localhost"
	DefaultTestPort        = 0 // 0 means auto-assign
	DefaultTestTimeout     = 30 * time.Second
	DefaultRequestTimeout  = 5 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMetricsEnabled  = false
)

// TestConfig holds test configuration loaded from environment.
type TestConfig struct {
	Host           string
	Port           int
	Timeout        time.Duration
	MetricsEnabled bool
}

// LoadTestConfig loads test configuration from environment variables.
func LoadTestConfig() *TestConfig {
	cfg := &TestConfig{
		Host:           DefaultTestHost,
		Port:           DefaultTestPort,
		Timeout:        DefaultTestTimeout,
		MetricsEnabled: DefaultMetricsEnabled,
	}

	if host := os.Getenv(EnvTestServerHost); host != "" {
		cfg.Host = host
	}

	if portStr := os.Getenv(EnvTestServerPort); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Port = port
		}
	}

	if timeoutStr := os.Getenv(EnvTestTimeout); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	if metricsStr := os.Getenv(EnvTestMetricsEnable); metricsStr != "" {
		if enabled, err := strconv.ParseBool(metricsStr); err == nil {
			cfg.MetricsEnabled = enabled
		}
	}

	return cfg
}

// ServerOption adjusts the server configuration before start.
type ServerOption func(*config.Config)

// WithSerializedWrites enables the single-writer lock.
func WithSerializedWrites() ServerOption {
	return func(c *config.Config) {
		c.SerializeWrites = true
	}
}

// TestServer wraps an in-process server backed by a temporary item file.
type TestServer struct {
	Server   *server.Server
	DataPath string
	BaseURL  string
	Port     int
	listener net.Listener
	t        *testing.T
	mu       sync.Mutex
	started  bool
}

// NewTestServer creates a server whose item file holds items.
func NewTestServer(t *testing.T, items []map[string]any, opts ...ServerOption) *TestServer {
	t.Helper()

	testCfg := LoadTestConfig()

	// Find an available port
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", testCfg.Host, testCfg.Port))
	if err != nil {
		t.Fatalf("Failed to find available port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	dataPath := filepath.Join(t.TempDir(), "items.json")
	WriteItems(t, dataPath, items)

	cfg := config.Default()
	cfg.ServerPort = port
	cfg.ShutdownTimeout = DefaultShutdownTimeout
	cfg.MetricsEnabled = testCfg.MetricsEnabled
	cfg.DataPath = dataPath
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zap.NewNop()

	var svcOpts []service.Option
	if cfg.SerializeWrites {
		svcOpts = append(svcOpts, service.WithSerializedWrites())
	}
	svc := service.New(store.NewFileStore(dataPath), logger, svcOpts...)

	ts := &TestServer{
		Server:   server.New(cfg, logger, svc),
		DataPath: dataPath,
		BaseURL:  fmt.Sprintf("http://%s:%d", testCfg.Host, port),
		Port:     port,
		listener: listener,
		t:        t,
	}

	return ts
}

// Start starts the test server.
func (ts *TestServer) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return
	}

	// Close the listener we used to find the port
	ts.listener.Close()

	go func() {
		if err := ts.Server.Start(); err != nil {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	ts.waitForReady()
	ts.started = true
}

// waitForReady waits for the server to be ready to accept connections.
func (ts *TestServer) waitForReady() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ts.t.Fatalf("Server did not become ready within timeout")
		case <-ticker.C:
			resp, err := http.Get(ts.BaseURL + "/health")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
	}
}

// Stop stops the test server.
func (ts *TestServer) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := ts.Server.Shutdown(ctx); err != nil {
		ts.t.Logf("Server shutdown error: %v", err)
	}

	ts.started = false
}

// StoredItems reads the item file directly.
func (ts *TestServer) StoredItems() []model.Item {
	ts.t.Helper()

	items, err := store.NewFileStore(ts.DataPath).Load(context.Background())
	if err != nil {
		ts.t.Fatalf("Failed to read item file: %v", err)
	}
	return items
}

// WriteItems replaces the item file at path.
func WriteItems(t *testing.T, path string, items []map[string]any) {
	t.Helper()

	if items == nil {
		items = []map[string]any{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode items: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write items: %v", err)
	}
}

// NumberedItems returns n items named "Item 1" .. "Item n".
func NumberedItems(n int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, map[string]any{
			"id":    i,
			"name":  fmt.Sprintf("Item %d", i),
			"price": i,
		})
	}
	return items
}

// SampleItems is the three-item fixture used across tests.
func SampleItems() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "Widget A", "price": 10, "category": "Tools"},
		{"id": 2, "name": "Widget B", "price": 20, "category": "Tools"},
		{"id": 3, "name": "Gadget C", "price": 30, "category": "Electronics"},
	}
}

// HTTPClient provides a configured HTTP client for tests.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	t       *testing.T
}

// NewHTTPClient creates a new HTTP client for testing.
func NewHTTPClient(t *testing.T, baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: DefaultRequestTimeout,
		},
		baseURL: baseURL,
		t:       t,
	}
}

// Request represents an HTTP request configuration.
type Request struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do executes an HTTP request and returns the response.
func (c *HTTPClient) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		switch v := req.Body.(type) {
		case string:
			bodyReader = bytes.NewBufferString(v)
		case []byte:
			bodyReader = bytes.NewBuffer(v)
		default:
			jsonBody, err := json.Marshal(req.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyReader = bytes.NewBuffer(jsonBody)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, Request{
		Method:  http.MethodGet,
		Path:    path,
		Headers: headers,
	})
}

// Post performs a POST request.
func (c *HTTPClient) Post(ctx context.Context, path string, body interface{}, headers map[string]string) (*Response, error) {
	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Headers: headers,
	})
}

// MustGet performs a GET request and fails the test on transport errors.
func (c *HTTPClient) MustGet(ctx context.Context, path string) *Response {
	c.t.Helper()
	resp, err := c.Get(ctx, path, nil)
	if err != nil {
		c.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// MustPost performs a POST request and fails the test on transport errors.
func (c *HTTPClient) MustPost(ctx context.Context, path string, body interface{}) *Response {
	c.t.Helper()
	resp, err := c.Post(ctx, path, body, nil)
	if err != nil {
		c.t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

// ParseItems decodes a bare item array.
func ParseItems(t *testing.T, body []byte) []model.Item {
	t.Helper()
	var items []model.Item
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatalf("Failed to parse item array: %v. Body: %s", err, string(body))
	}
	return items
}

// ParseItemPage decodes a {data, pagination} envelope.
func ParseItemPage(t *testing.T, body []byte) model.ItemPage {
	t.Helper()
	var page model.ItemPage
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("Failed to parse item page: %v. Body: %s", err, string(body))
	}
	if page.Pagination == nil {
		t.Fatalf("Response has no pagination: %s", string(body))
	}
	return page
}

// ParseItem decodes a single item.
func ParseItem(t *testing.T, body []byte) model.Item {
	t.Helper()
	var item model.Item
	if err := json.Unmarshal(body, &item); err != nil {
		t.Fatalf("Failed to parse item: %v. Body: %s", err, string(body))
	}
	return item
}

// ParseError decodes an {error} body.
func ParseError(t *testing.T, body []byte) string {
	t.Helper()
	var resp model.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Failed to parse error response: %v. Body: %s", err, string(body))
	}
	return resp.Error
}

// Names returns the item names in order.
func Names(items []model.Item) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

// AssertStatusCode asserts that the response has the expected status code.
func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// AssertHeader asserts that the response has the expected header value.
func AssertHeader(t *testing.T, resp *Response, key, expected string) {
	t.Helper()
	actual := resp.Headers.Get(key)
	if actual != expected {
		t.Errorf("Expected header %s to be %q, got %q", key, expected, actual)
	}
}

// AssertNames asserts that items carry exactly the expected names in order.
func AssertNames(t *testing.T, items []model.Item, expected ...string) {
	t.Helper()
	got := Names(items)
	if len(got) != len(expected) {
		t.Errorf("Expected names %v, got %v", expected, got)
		return
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Expected names %v, got %v", expected, got)
			return
		}
	}
}

// LogTestStart logs the start of a test.
func LogTestStart(t *testing.T, testID, testName string) {
	t.Helper()
	t.Logf("Starting test %s: %s", testID, testName)
}

// LogTestEnd logs the end of a test.
func LogTestEnd(t *testing.T, testID string) {
	t.Helper()
	t.Logf("Completed test %s", testID)
}
