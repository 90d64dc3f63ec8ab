//go:build e2e

package e2e_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/vyrodovalexey/catalog-api/internal/client"
)

// Environment variable names for E2E test configuration.
const (
	EnvServerURL = "E2E_SERVER_URL"
)

// Default configuration values.
const (
	DefaultServerURL = client.DefaultBaseURL
	DefaultTimeout   = 15 * time.Second
)

// getEnvOrDefault returns the value of the environment variable
// identified by key, or defaultVal if the variable is not set.
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// e2eServerURL returns the base URL of the server under test.
func e2eServerURL() string {
	return getEnvOrDefault(EnvServerURL, DefaultServerURL)
}

// skipIfServerUnavailable checks whether the server is reachable
// and skips the test if it is not.
func skipIfServerUnavailable(t *testing.T) {
	t.Helper()

	base := e2eServerURL()
	hc := &http.Client{Timeout: 3 * time.Second}
	resp, err := hc.Get(base + "/health")
	if err != nil {
		t.Skipf("Server unavailable at %s: %v", base, err)
	}
	resp.Body.Close()
}

// newClient returns an API client for the server under test.
func newClient() *client.Client {
	return client.New(e2eServerURL(), client.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}))
}

// testContext returns a context bounded by DefaultTimeout.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// uniqueName returns a name that no other run has used.
func uniqueName(prefix string) string {
	return prefix + " " + time.Now().Format(time.RFC3339Nano)
}
