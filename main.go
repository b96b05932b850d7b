package main

import (
	"net/http"

	"rotation/assignment"
	"rotation/config"
	"rotation/database"
	"rotation/handlers"
	"rotation/middleware"
	"rotation/period"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// All period arithmetic runs in the organizational timezone
	calc, err := period.NewCalculator(cfg.Timezone)
	if err != nil {
		logger.Fatalf("Failed to load timezone: %v", err)
	}

	// Initialize database
	if err := database.Init(cfg.DatabaseURL, cfg.DefaultRefusalHours); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	store := database.NewStore(database.GetDB())
	coordinator := assignment.NewCoordinator(store, calc, logger, assignment.Options{})

	// Initialize handlers
	employeeHandler := handlers.NewEmployeeHandler(logger)
	overtimeHandler := handlers.NewOvertimeHandler(logger)
	assignmentHandler := handlers.NewAssignmentHandler(coordinator, logger)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	router.Use(chimiddleware.Recoverer)
	router.NotFound(handlers.NotFound)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireJSON)

		r.Get("/health", handlers.Health)
		r.Handle("/metrics", promhttp.Handler())

		r.Get("/employees", employeeHandler.List)
		r.Post("/employees", employeeHandler.Create)
		r.Patch("/employees/{id}", employeeHandler.Update)

		r.Post("/overtime-entries", overtimeHandler.Create)

		r.Get("/overtime-summary", assignmentHandler.Summary)
		r.Get("/who-is-next", assignmentHandler.WhoIsNext)
		r.Post("/assign-next", assignmentHandler.AssignNext)
	})

	logger.Infof("Server starting on port %s", cfg.ServerPort)
	logger.Fatal(http.ListenAndServe(":"+cfg.ServerPort, router))
}
