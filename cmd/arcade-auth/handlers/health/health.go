// Package health serves the liveness and dependency check endpoint.
package health

import (
	"context"
	"net/http"
	"sort"

	"github.com/wrale/arcade-auth/cmd/arcade-auth/handlers/common"
)

// Checker is implemented by every component that can report its health
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

// CheckHealth implements Checker
func (f CheckerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

type component struct {
	name    string
	checker Checker
}

// Handler processes health check requests
type Handler struct {
	components []component
	version    string
	stats      func() any
}

// Response represents the health check response.
type Response struct {
	Status  string         `json:"status"`
	Version string         `json:"version,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Stats   any            `json:"stats,omitempty"`
}

// New creates a health handler over the named components
func New(checkers map[string]Checker) *Handler {
	h := &Handler{version: "unknown"}
	for name, c := range checkers {
		h.components = append(h.components, component{name: name, checker: c})
	}
	sort.Slice(h.components, func(i, j int) bool { return h.components[i].name < h.components[j].name })
	return h
}

// WithVersion sets the version for health check responses
func (h *Handler) WithVersion(version string) *Handler {
	h.version = version
	return h
}

// WithStats attaches a snapshot of runtime counters to healthy and unhealthy responses
func (h *Handler) WithStats(fn func() any) *Handler {
	h.stats = fn
	return h
}

// ServeHTTP handles health check requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := Response{
		Status:  "healthy",
		Version: h.version,
		Details: make(map[string]any, len(h.components)),
	}

	for _, c := range h.components {
		if err := c.checker.CheckHealth(r.Context()); err != nil {
			response.Status = "unhealthy"
			response.Details[c.name] = map[string]any{
				"status":  "unhealthy",
				"message": err.Error(),
			}
			continue
		}
		response.Details[c.name] = map[string]any{"status": "healthy"}
	}

	if h.stats != nil {
		response.Stats = h.stats()
	}

	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	common.WriteJSON(w, status, response)
}
