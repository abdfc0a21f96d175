package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"toolgate/internal/common/cache"
	"toolgate/internal/ratelimit"
)

// GetExecutionCounters reports the execution counters of a user without
// touching them. ?operation= adds the per-operation counter.
// @Summary Get execution counters
// @Description Returns the global counter of a user and, with operation set, the per-operation counter
// @Tags counters
// @Produce json
// @Param user_id path int true "User ID"
// @Param operation query string false "Operation name"
// @Success 200 {object} map[string]interface{} "Execution usage"
// @Failure 400 {object} ErrorResponse "Invalid user id or operation"
// @Failure 503 {object} ErrorResponse "Counter store unavailable"
// @Router /api/counters/execution/{user_id} [get]
func (h *Handlers) GetExecutionCounters(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		h.sendJSONError(w, err, "Invalid user id", "user_id must be a positive integer", http.StatusBadRequest)
		return
	}

	operation := r.URL.Query().Get("operation")
	if operation != "" {
		if err := h.validator.ValidateVar(operation, "operation_name"); err != nil {
			h.sendJSONError(w, err, "Invalid operation", "operation must be a non-blank name without whitespace", http.StatusBadRequest)
			return
		}
	}

	usage, err := h.guard.ExecutionUsage(r.Context(), userID, operation)
	if err != nil {
		h.sendAppError(w, err, "Failed to read execution counters")
		return
	}

	response := map[string]interface{}{
		"usage":              usage,
		"global_ttl_seconds": h.ttlSeconds(r, ratelimit.GlobalKey(userID)),
	}
	if operation != "" {
		response["ttl_seconds"] = h.ttlSeconds(r, ratelimit.ExecutionKey(userID, operation))
	}

	h.sendJSONResponse(w, response)
}

// GetDiscoveryCounters reports the discovery counter of an IP
// @Summary Get discovery counter
// @Description Returns the discovery counter of a network identity
// @Tags counters
// @Produce json
// @Param ip path string true "IP address"
// @Success 200 {object} map[string]interface{} "Discovery usage"
// @Failure 400 {object} ErrorResponse "Invalid ip"
// @Failure 503 {object} ErrorResponse "Counter store unavailable"
// @Router /api/counters/discovery/{ip} [get]
func (h *Handlers) GetDiscoveryCounters(w http.ResponseWriter, r *http.Request) {
	ip := mux.Vars(r)["ip"]
	if err := h.validator.ValidateVar(ip, "required,ip"); err != nil {
		h.sendJSONError(w, err, "Invalid ip", "ip must be a valid IP address", http.StatusBadRequest)
		return
	}

	usage, err := h.guard.DiscoveryUsage(r.Context(), ip)
	if err != nil {
		h.sendAppError(w, err, "Failed to read discovery counters")
		return
	}

	h.sendJSONResponse(w, map[string]interface{}{
		"usage":       usage,
		"ttl_seconds": h.ttlSeconds(r, ratelimit.DiscoveryKey(ip)),
	})
}

// ListCounters lists the live counter keys
// @Summary List counters
// @Description Returns the keys of all live counters
// @Tags counters
// @Produce json
// @Success 200 {object} map[string]interface{} "Counter keys"
// @Failure 501 {object} ErrorResponse "Counter store cannot list keys"
// @Failure 503 {object} ErrorResponse "Counter store unavailable"
// @Router /api/counters [get]
func (h *Handlers) ListCounters(w http.ResponseWriter, r *http.Request) {
	inspector, ok := h.store.(cache.Inspector)
	if !ok {
		h.sendJSONError(w, nil, "Counter store cannot list keys", "Counter listing not supported", http.StatusNotImplemented)
		return
	}

	keys, err := inspector.Keys(r.Context(), ratelimit.Group)
	if err != nil {
		h.sendAppError(w, err, "Failed to list counters")
		return
	}
	if keys == nil {
		keys = []string{}
	}

	h.sendJSONResponse(w, map[string]interface{}{
		"group": ratelimit.Group,
		"keys":  keys,
		"count": len(keys),
	})
}

// ttlSeconds returns the remaining lifetime of key, or nil when the store
// cannot tell.
func (h *Handlers) ttlSeconds(r *http.Request, key string) interface{} {
	inspector, ok := h.store.(cache.Inspector)
	if !ok {
		return nil
	}
	ttl, err := inspector.TTL(r.Context(), key, ratelimit.Group)
	if err != nil {
		return nil
	}
	return int(ttl.Round(time.Second) / time.Second)
}
