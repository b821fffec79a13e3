package handlers

import (
	"net/http"

	"github.com/ramonehamilton/wishlist-companion/internal/api/response"
	"github.com/ramonehamilton/wishlist-companion/internal/metrics"
	"github.com/ramonehamilton/wishlist-companion/internal/version"
)

// SystemHandler handles system-related API requests.
type SystemHandler struct {
	metrics *metrics.WishlistMetrics
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(m *metrics.WishlistMetrics) *SystemHandler {
	return &SystemHandler{metrics: m}
}

// GetVersion returns the application version.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"version": version.GetVersion(),
		"service": "wishlist-companion-api",
	})
}

// GetMetrics returns operation latencies and counters.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.metrics.GetStats())
}
