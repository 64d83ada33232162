package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"guardian-shield/internal/api/handlers"
	apimiddleware "guardian-shield/internal/api/middleware"
	"guardian-shield/internal/config"
	"guardian-shield/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	limiter  apimiddleware.Limiter
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. limiter may be nil when rate
// limiting is disabled.
func NewRouter(cfg config.Config, h *handlers.Handlers, limiter apimiddleware.Limiter, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		limiter:  limiter,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Get("/health", r.handlers.Health.Check)
	router.Get("/ready", r.handlers.Health.Ready)

	// The live feed is long-lived and sits outside the request timeout
	router.Get("/api/v1/stream", r.handlers.Streaming.HandleWebSocket)

	router.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(60 * time.Second))

		if r.config.RateLimit.Enabled && r.limiter != nil {
			api.Use(apimiddleware.RateLimiter(r.limiter, r.config.RateLimit, r.logger))
		}

		api.Route("/api/v1", func(v1 chi.Router) {
			v1.Route("/analyze", func(an chi.Router) {
				an.Post("/link", r.handlers.Analysis.AnalyzeLink)
				an.Post("/email", r.handlers.Analysis.AnalyzeEmail)
				an.Post("/voice", r.handlers.Analysis.AnalyzeVoice)
				an.Post("/video", r.handlers.Analysis.AnalyzeVideo)
				an.Post("/batch", r.handlers.Analysis.AnalyzeBatch)
			})

			v1.Get("/analyses/recent", r.handlers.Analysis.Recent)
			v1.Get("/analyses/summary", r.handlers.Analysis.Summary)

			v1.Route("/extension", func(ext chi.Router) {
				ext.Post("/message", r.handlers.Extension.Message)
				ext.Get("/history", r.handlers.Extension.History)
				ext.Get("/stats", r.handlers.Extension.Stats)
				ext.Post("/quick-check", r.handlers.Extension.QuickCheck)
			})

			v1.Get("/stream/stats", r.handlers.Streaming.GetStats)
		})

		// First-generation routes
		api.Route("/api", func(legacy chi.Router) {
			legacy.Post("/voice-detection", r.handlers.Legacy.VoiceDetection)
			legacy.Post("/deepfake-detection", r.handlers.Legacy.DeepfakeDetection)
			legacy.Post("/phishing-detection/link", r.handlers.Legacy.LinkDetection)
			legacy.Post("/phishing-detection/url", r.handlers.Legacy.LinkDetection)
			legacy.Post("/phishing-detection/email", r.handlers.Legacy.EmailDetection)
		})
	})

	return router
}
