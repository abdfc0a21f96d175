package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"toolgate/internal/handlers"
	"toolgate/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers, metrics http.Handler) {
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.Handle("/metrics", metrics).Methods("GET")

	// Swagger UI
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Tool gateway
	router.HandleFunc("/tools", h.ListTools).Methods("GET")
	router.HandleFunc("/tools/{name:.+}", h.ExecuteTool).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()

	// Admission checks for callers that enforce limits themselves
	api.HandleFunc("/admission/execution", h.CheckExecution).Methods("POST")
	api.HandleFunc("/admission/discovery", h.CheckDiscovery).Methods("POST")

	// Counter inspection
	api.HandleFunc("/counters", h.ListCounters).Methods("GET")
	api.HandleFunc("/counters/execution/{user_id}", h.GetExecutionCounters).Methods("GET")
	api.HandleFunc("/counters/discovery/{ip}", h.GetDiscoveryCounters).Methods("GET")
}

func (app *App) metricsHandler() http.Handler {
	return promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})
}
