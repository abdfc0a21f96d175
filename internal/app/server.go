package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"toolgate/internal/handlers"
	"toolgate/internal/server"
)

// RunServer builds the router and the HTTP server
func (app *App) RunServer() (*server.Server, http.Handler) {
	h := handlers.New(app.Guard, app.Store, app.Config)

	router := mux.NewRouter()
	SetupRoutes(router, h, app.metricsHandler())

	srv := server.New(router, app.Config.Port, "", "")

	return srv, router
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown(ctx context.Context) error {
	app.Cleanup()
	return nil
}
