package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/services"
	"github.com/indiafamilytree/familytree/infrastructure/config"
	"github.com/indiafamilytree/familytree/interfaces/http/rest/handlers"
	"github.com/indiafamilytree/familytree/interfaces/http/rest/middleware"
	"github.com/indiafamilytree/familytree/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg     *config.Config
	trees   *services.TreeService
	builder *services.FamilyBuilder
	sync    *services.SyncService
	metrics *observability.Collector
	logger  *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	trees *services.TreeService,
	builder *services.FamilyBuilder,
	sync *services.SyncService,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:     cfg,
		trees:   trees,
		builder: builder,
		sync:    sync,
		metrics: metrics,
		logger:  logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.indiafamilytree.com"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		treeHandler := handlers.NewTreeHandler(rt.trees, rt.builder, rt.logger)
		syncHandler := handlers.NewSyncHandler(rt.sync, rt.logger)

		r.Route("/tree", func(r chi.Router) {
			r.Get("/", treeHandler.GetTree)
			r.Post("/root", treeHandler.InitializeRoot)
			r.Get("/generations", treeHandler.GetGenerations)
		})

		r.Route("/persons", func(r chi.Router) {
			r.Post("/", treeHandler.AttachPerson)
			r.Put("/{personID}", treeHandler.UpdatePerson)
			r.Post("/import", treeHandler.ImportPersons)
		})

		r.Route("/families", func(r chi.Router) {
			r.Post("/immediate", treeHandler.CreateImmediateFamily)
			r.Post("/ancestral", treeHandler.CreateAncestralFamily)
		})

		r.Post("/sync", syncHandler.Flush)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
