package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"toolgate/internal/ratelimit"
)

// ExecutionRequest asks whether a user may run an operation now
type ExecutionRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gte=1"`
	Operation string `json:"operation" validate:"required,operation_name"`
}

// DiscoveryRequest asks whether a network identity may issue a discovery call.
// An empty IP means the caller's own address.
type DiscoveryRequest struct {
	IP string `json:"ip" validate:"omitempty,ip"`
}

// AdmissionResponse is the answer of both admission endpoints
type AdmissionResponse struct {
	Allowed bool `json:"allowed"`
}

// CheckExecution runs the execution guard for the user and operation in the body
// @Summary Check execution admission
// @Description Admits or rejects one call of an operation by a user. An admitted call counts against the operation limit and the user's global ceiling.
// @Tags admission
// @Accept json
// @Produce json
// @Param request body ExecutionRequest true "User and operation"
// @Success 200 {object} AdmissionResponse "Call admitted"
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 429 {object} ratelimit.RejectionResponse "Rate limit exceeded"
// @Failure 503 {object} ErrorResponse "Counter store unavailable"
// @Router /api/admission/execution [post]
func (h *Handlers) CheckExecution(w http.ResponseWriter, r *http.Request) {
	var req ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendJSONError(w, err, "Failed to decode execution request", "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.sendAppError(w, err, "Invalid execution request")
		return
	}

	if d := h.guard.EvaluateExecution(r.Context(), req.UserID, req.Operation); !d.Allowed {
		h.reject(w, d)
		return
	}

	h.sendJSONResponse(w, AdmissionResponse{Allowed: true})
}

// CheckDiscovery runs the discovery guard for the IP in the body, or the caller's IP
// @Summary Check discovery admission
// @Description Admits or rejects one discovery request from a network identity. An empty body checks the caller's own address.
// @Tags admission
// @Accept json
// @Produce json
// @Param request body DiscoveryRequest false "Network identity"
// @Success 200 {object} AdmissionResponse "Request admitted"
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 429 {object} ratelimit.RejectionResponse "Rate limit exceeded"
// @Failure 503 {object} ErrorResponse "Counter store unavailable"
// @Router /api/admission/discovery [post]
func (h *Handlers) CheckDiscovery(w http.ResponseWriter, r *http.Request) {
	var req DiscoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.sendJSONError(w, err, "Failed to decode discovery request", "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.sendAppError(w, err, "Invalid discovery request")
		return
	}

	ip := req.IP
	if ip == "" {
		ip = h.ips.ClientIP(r)
	}

	if d := h.guard.EvaluateDiscovery(r.Context(), ip); !d.Allowed {
		h.reject(w, d)
		return
	}

	h.sendJSONResponse(w, AdmissionResponse{Allowed: true})
}

// reject answers a denied admission: 503 when the counter store failed,
// 429 from the rejecting tier otherwise
func (h *Handlers) reject(w http.ResponseWriter, d ratelimit.Decision) {
	if d.Err != nil {
		h.sendAppError(w, d.Err, "Counter store unavailable during admission check")
		return
	}
	ratelimit.WriteRejection(w, d)
}
