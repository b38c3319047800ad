package http

import (
	"log/slog"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(logger *slog.Logger, cfg RouterConfig, JWTService jwt.Service, resolutionHandler ResolutionHandler) *chi.Mux {
	r := chi.NewRouter()

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires an admin access token
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.AdminOnly)

			r.Route("/resolution", func(r chi.Router) {
				r.Route("/sweeps", func(r chi.Router) {
					r.Post("/rollover", resolutionHandler.RunRollover)
					r.Post("/safety", resolutionHandler.RunSafety)
				})
				r.Get("/workdays/{employeeID}/{date}", resolutionHandler.GetWorkday)
				r.Get("/employees/{employeeID}/open-punch", resolutionHandler.GetOpenPunch)
			})
		})
	})

	return r
}
