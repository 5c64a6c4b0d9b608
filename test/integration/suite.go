// Package integration runs end-to-end checks against a running arcade-auth
// server, selected with ARCADE_ENDPOINT.
package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/wrale/arcade-auth/pkg/client"
)

// Configuration for integration tests
const (
	// EndpointEnv names the server under test
	EndpointEnv = "ARCADE_ENDPOINT"

	ServiceTimeout = 60 * time.Second
	RetryInterval  = 2 * time.Second
)

// TestSuite provides shared functionality for integration tests
type TestSuite struct {
	T        *testing.T
	Endpoint string
	Client   *client.Client
	HTTP     *http.Client
	Ctx      context.Context
}

// NewSuite creates a suite bound to ARCADE_ENDPOINT, skipping the test in
// short mode or when no endpoint is configured.
func NewSuite(t *testing.T) *TestSuite {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	endpoint := os.Getenv(EndpointEnv)
	if endpoint == "" {
		t.Skipf("%s not set", EndpointEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ServiceTimeout)
	t.Cleanup(cancel)

	hc := &http.Client{Timeout: 10 * time.Second}
	return &TestSuite{
		T:        t,
		Endpoint: endpoint,
		Client:   client.New(endpoint, client.WithHTTPClient(hc)),
		HTTP:     hc,
		Ctx:      ctx,
	}
}

// WaitForServices waits until the server reports healthy
func (s *TestSuite) WaitForServices() error {
	ticker := time.NewTicker(RetryInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		lastErr = s.checkHealth()
		if lastErr == nil {
			return nil
		}

		select {
		case <-s.Ctx.Done():
			return fmt.Errorf("timeout waiting for services: %w", lastErr)
		case <-ticker.C:
		}
	}
}

func (s *TestSuite) checkHealth() error {
	req, err := http.NewRequestWithContext(s.Ctx, http.MethodGet, s.Endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("checking health: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}
	return nil
}
