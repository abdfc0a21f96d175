package handlers

import (
	"net/http"
	"time"

	"toolgate/internal/common/cache"
)

// HealthCheck reports service and counter store health
// @Summary Health check
// @Description Returns service health including counter store and circuit breaker status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Failure 503 {object} map[string]interface{} "Counter store unavailable"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":        "healthy",
		"timestamp":     time.Now(),
		"version":       "1.0.0",
		"counter_store": h.config.CounterStore,
	}

	code := http.StatusOK
	if hc, ok := h.store.(cache.HealthChecker); ok {
		if err := hc.Health(r.Context()); err != nil {
			status["status"] = "unhealthy"
			status["store_status"] = "unhealthy"
			status["store_error"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status["store_status"] = "healthy"
		}
	} else {
		status["store_status"] = "local"
	}

	if bc, ok := h.store.(*cache.BreakerCache); ok {
		status["store_breaker"] = bc.Breaker().Stats()
	}

	h.sendJSONStatus(w, code, status)
}
