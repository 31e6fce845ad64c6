// Package router assembles the gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shakespeare-rag-api/internal/config"
	"shakespeare-rag-api/internal/interfaces/http/handler"
	"shakespeare-rag-api/internal/interfaces/http/middleware"
)

// Router wires middleware and routes.
type Router struct {
	cfg     *config.Config
	answer  *handler.AnswerHandler
	corpus  *handler.CorpusHandler
	health  *handler.HealthHandler
	limiter middleware.RateLimiter
}

// New creates a Router. limiter may be nil when rate limiting is off.
func New(cfg *config.Config, answer *handler.AnswerHandler, corpus *handler.CorpusHandler, health *handler.HealthHandler, limiter middleware.RateLimiter) *Router {
	return &Router{
		cfg:     cfg,
		answer:  answer,
		corpus:  corpus,
		health:  health,
		limiter: limiter,
	}
}

// Setup builds the gin engine.
func (r *Router) Setup() *gin.Engine {
	if r.cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))
	if r.cfg.Observability.Tracing.Enabled {
		engine.Use(middleware.Trace(r.cfg.App.Name))
		engine.Use(middleware.TraceContext())
	}
	if r.cfg.Observability.Metrics.Enabled {
		engine.Use(middleware.Metrics())
	}
	engine.Use(middleware.RateLimit(r.cfg.Security.RateLimit.Enabled, r.limiter))

	r.registerRoutes(engine)

	if r.cfg.Observability.Metrics.Enabled {
		path := r.cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(promhttp.Handler()))
	}

	return engine
}
