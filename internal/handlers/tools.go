package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"toolgate/internal/common/logging"
	"toolgate/internal/ratelimit"
)

// ToolListResponse is returned by the discovery endpoint
type ToolListResponse struct {
	Tools []string `json:"tools"`
	Count int      `json:"count"`
}

// ToolAcceptedResponse is returned when a tool call is admitted
type ToolAcceptedResponse struct {
	Accepted  bool   `json:"accepted"`
	Tool      string `json:"tool"`
	UserID    int64  `json:"user_id"`
	RequestID string `json:"request_id,omitempty"`
}

// ListTools serves tool discovery behind the discovery guard
// @Summary List exposed tools
// @Description Returns the exposed tool names. Rate limited per client IP.
// @Tags tools
// @Produce json
// @Param X-User-ID header int false "Authenticated user id, required unless discovery is public"
// @Success 200 {object} ToolListResponse "Exposed tools"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 429 {object} ratelimit.RejectionResponse "Rate limit exceeded"
// @Failure 503 {object} ErrorResponse "Gateway disabled or counter store unavailable"
// @Router /tools [get]
func (h *Handlers) ListTools(w http.ResponseWriter, r *http.Request) {
	if !h.config.ToolsEnabled {
		h.sendJSONError(w, nil, "Tool request while gateway is disabled", "Tool gateway is disabled", http.StatusServiceUnavailable)
		return
	}

	if !h.config.DiscoveryPublic {
		if _, ok := ratelimit.UserID(r); !ok {
			h.sendJSONError(w, nil, "", "Authentication required", http.StatusUnauthorized)
			return
		}
	}

	if d := h.guard.EvaluateDiscovery(r.Context(), h.ips.ClientIP(r)); !d.Allowed {
		h.reject(w, d)
		return
	}

	tools := h.tools
	if tools == nil {
		tools = []string{}
	}
	h.sendJSONResponse(w, ToolListResponse{Tools: tools, Count: len(tools)})
}

// ExecuteTool admits a tool call behind the execution guard. Running the tool
// is left to the upstream that receives the 202.
// @Summary Execute tool
// @Description Admits one call of an exposed tool for the authenticated user
// @Tags tools
// @Produce json
// @Param name path string true "Tool name"
// @Param X-User-ID header int true "Authenticated user id"
// @Success 202 {object} ToolAcceptedResponse "Call admitted"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 404 {object} ErrorResponse "Tool not found"
// @Failure 429 {object} ratelimit.RejectionResponse "Rate limit exceeded"
// @Failure 503 {object} ErrorResponse "Gateway disabled or counter store unavailable"
// @Router /tools/{name} [post]
func (h *Handlers) ExecuteTool(w http.ResponseWriter, r *http.Request) {
	if !h.config.ToolsEnabled {
		h.sendJSONError(w, nil, "Tool request while gateway is disabled", "Tool gateway is disabled", http.StatusServiceUnavailable)
		return
	}

	userID, ok := ratelimit.UserID(r)
	if !ok {
		h.sendJSONError(w, nil, "", "Authentication required", http.StatusUnauthorized)
		return
	}

	name := mux.Vars(r)["name"]
	if !h.exposed[name] {
		h.sendJSONError(w, nil, "", "Tool not found", http.StatusNotFound)
		return
	}

	if d := h.guard.EvaluateExecution(r.Context(), userID, name); !d.Allowed {
		h.reject(w, d)
		return
	}

	requestID, _ := r.Context().Value(logging.RequestIDKey).(string)
	h.sendJSONStatus(w, http.StatusAccepted, ToolAcceptedResponse{
		Accepted:  true,
		Tool:      name,
		UserID:    userID,
		RequestID: requestID,
	})
}
