package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine. metrics, when non-nil, is served at
// /metrics.
func NewRouter(h *Handlers, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(h.logger))
	RegisterRoutes(router, h)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	return router
}

// RegisterRoutes attaches the engine routes to r.
func RegisterRoutes(r gin.IRoutes, h *Handlers) {
	r.GET("/healthz", h.HandleHealth)
	r.POST("/query/:name", h.HandleQuery)
	r.POST("/mutation/:name", h.HandleMutation)
	r.GET("/charges/:id", h.HandleCharge)
	r.GET("/pumps/:id", h.HandlePump)
}

// NewServer wraps an http.Server around a router.
func NewServer(addr string, router http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
