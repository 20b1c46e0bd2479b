// Package server exposes an api.Client implementation over JSON/HTTP with
// gin. It is the reference backend the HTTP client talks to.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/prompt2production/needled-mobile-sub000/internal/api"
	apperrors "github.com/prompt2production/needled-mobile-sub000/internal/errors"
	"github.com/prompt2production/needled-mobile-sub000/internal/logger"
	"github.com/prompt2production/needled-mobile-sub000/internal/metrics"
	"github.com/prompt2production/needled-mobile-sub000/internal/storage"
)

// Config controls the router.
type Config struct {
	// Token, when set, is required as a bearer credential on every API route.
	Token string
}

// NewRouter builds the gin engine serving backend.
func NewRouter(backend api.Client, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), observe())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	h := &handlers{backend: backend}
	authed := router.Group("/", requireToken(cfg.Token))
	{
		authed.GET("/habits/today", h.todayHabits)
		authed.PATCH("/habits/today", h.toggleHabit)
		authed.GET("/habits", h.habitRange)

		authed.GET("/injections/status", h.injectionStatus)
		authed.GET("/injections", h.injections)
		authed.POST("/injections", h.logInjection)

		authed.GET("/weigh-ins/latest", h.latestWeighIn)
		authed.GET("/weigh-ins", h.weighIns)
		authed.POST("/weigh-ins", h.logWeighIn)

		authed.GET("/calendar/:year/:month", h.month)
	}
	return router
}

// observe counts and logs every request.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		logger.Named("http").Info("Request handled",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start))
	}
}

func requireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		got, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "missing or invalid bearer token"})
			return
		}
		c.Next()
	}
}

// writeError renders err with the status its taxonomy maps to.
func writeError(c *gin.Context, err error) {
	status := apperrors.StatusCode(err)
	body := api.ErrorResponse{Error: err.Error()}

	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Error = verr.Message
		body.Field = verr.Field
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		body.Error = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, body)
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
