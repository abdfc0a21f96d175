package handlers

import (
	"encoding/json"
	"net/http"

	"toolgate/internal/common/cache"
	"toolgate/internal/common/errors"
	"toolgate/internal/common/logging"
	"toolgate/internal/common/validation"
	"toolgate/internal/config"
	"toolgate/internal/ratelimit"
)

// ErrorResponse is the body of every error answer
type ErrorResponse struct {
	Error string `json:"error"`
}

type Handlers struct {
	guard     *ratelimit.Guard
	store     cache.Store
	config    *config.Config
	validator *validation.CentralizedValidator
	tools     []string
	exposed   map[string]bool
	ips       *ratelimit.IPResolver
	logger    logging.Logger
}

func New(guard *ratelimit.Guard, store cache.Store, cfg *config.Config) *Handlers {
	tools := cfg.ExposedToolList()
	exposed := make(map[string]bool, len(tools))
	for _, name := range tools {
		exposed[name] = true
	}

	logger := logging.GetGlobalLogger().WithFields(logging.String("component", "handlers"))

	ips, err := ratelimit.NewIPResolver(cfg.TrustedProxyList())
	if err != nil {
		// A trust list no real peer matches resolves every request to its peer address.
		logger.Error("Invalid trusted proxies, using peer addresses only", err)
		ips, _ = ratelimit.NewIPResolver([]string{"0.0.0.0/32"})
	}

	return &Handlers{
		guard:     guard,
		store:     store,
		config:    cfg,
		validator: validation.NewCentralizedValidator(),
		tools:     tools,
		exposed:   exposed,
		ips:       ips,
		logger:    logger,
	}
}

func (h *Handlers) sendJSONResponse(w http.ResponseWriter, data interface{}) {
	h.sendJSONStatus(w, http.StatusOK, data)
}

func (h *Handlers) sendJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// sendJSONError logs logMsg with err when the status is a server error and
// answers with userMsg.
func (h *Handlers) sendJSONError(w http.ResponseWriter, err error, logMsg, userMsg string, status int) {
	if status >= http.StatusInternalServerError {
		h.logger.Error(logMsg, err, logging.Int("status", status))
	}
	h.sendJSONStatus(w, status, ErrorResponse{Error: userMsg})
}

// sendAppError answers with the status matching the error type
func (h *Handlers) sendAppError(w http.ResponseWriter, err error, logMsg string) {
	status := errors.HTTPStatus(err)

	userMsg := http.StatusText(status)
	if appErr, ok := errors.AsAppError(err); ok && appErr.Type == errors.ErrTypeValidation {
		userMsg = appErr.Message
	}

	h.sendJSONError(w, err, logMsg, userMsg, status)
}
