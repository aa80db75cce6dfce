// Package api serves the scope pipeline over HTTP.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"renovation-scope/internal/common/logger"
)

const ScopePath = "/api/v1/renovation-scope"

type RouterConfig struct {
	ScopeHandler   *ScopeHandler
	HealthHandler  *HealthHandler
	AllowedOrigins []string
	Logger         logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.Health)
		r.GET("/ready", cfg.HealthHandler.Ready)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.ScopeHandler != nil {
		r.POST(ScopePath, cfg.ScopeHandler.Generate)
	}
	return r
}

// CORS allows browser callers. An empty origin list allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
