package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"smartbin-backend/internal/dashboard"
	"smartbin-backend/internal/database"
	"smartbin-backend/internal/middleware"
	"smartbin-backend/internal/reconcile"
	"smartbin-backend/internal/vehicle"
	"smartbin-backend/internal/websocket"
)

// Deps carries everything the HTTP surface talks to. A nil Auth leaves the
// mutating routes open and disables login; a nil Hub disables /ws.
type Deps struct {
	Store          *database.Store
	Dashboard      *dashboard.Service
	Reconciler     *reconcile.Service
	Route          *vehicle.Route
	Hub            *websocket.Hub
	Auth           *middleware.Authenticator
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter wires the dashboard API.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", Health(d.Store))

	if d.Hub != nil {
		// Authentication handled in handler via query param
		r.Get("/ws", websocket.HandleWebSocket(d.Hub, d.Auth))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if d.Auth != nil {
			r.Post("/login", Login(d.Store, d.Auth, logger))
		}

		r.Get("/bins/registered", GetRegisteredBins(d.Dashboard, logger))
		r.Get("/bins/{id}/telemetry", GetBinTelemetry(d.Dashboard, logger))
		r.Get("/bins/{id}/chart.png", GetBinChart(d.Dashboard, logger))
		r.Get("/telemetry/latest", GetLatestTelemetry(d.Dashboard, logger))
		r.Get("/bin/analysis/{id}", GetBinAnalysis(d.Dashboard, logger))
		r.Get("/collection/route", GetVehicleRoute(d.Route))
		r.Get("/collection/plan", GetPickupPlan(d.Dashboard, d.Route, logger))

		// Mutating routes require an operator token when auth is enabled
		r.Group(func(r chi.Router) {
			if d.Auth != nil {
				r.Use(d.Auth.Middleware)
				r.Use(middleware.RequireRole("operator"))
			}
			r.Post("/register_bin", RegisterBin(d.Store, logger))
			r.Post("/log_collection", LogCollection(d.Reconciler, logger))
		})
	})

	return r
}
