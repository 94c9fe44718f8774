package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/recipegrid/internal/ctxlog"
	"github.com/specialistvlad/recipegrid/internal/recipe"
)

const shutdownTimeout = 5 * time.Second

// errorResponse is the body of every non-2xx recipe response.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Key   string `json:"key,omitempty"`
}

// Router builds the HTTP handler:
//
//	POST /v1/recipes/parse     validate, parse and rename a recipe
//	POST /v1/recipes/evaluate  the same, then evaluate it
//	GET  /health               liveness
//	GET  /metrics              Prometheus metrics
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())

	r.GET("/health", a.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1/recipes")
	v1.POST("/parse", a.recipeHandler(false))
	v1.POST("/evaluate", a.recipeHandler(true))
	return r
}

// healthHandler reports that the server is up.
func (a *App) healthHandler(c *gin.Context) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", c.Request.RemoteAddr, "path", c.Request.URL.Path)
	c.String(http.StatusOK, "OK\n")
}

func (a *App) recipeHandler(evaluate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "cannot read request body"})
			return
		}

		ctx := a.context(c.Request.Context())
		out, err := a.execute(ctx, json.RawMessage(body), evaluate)
		if err != nil {
			status, resp := a.errorStatus(ctx, err)
			c.JSON(status, resp)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// errorStatus maps recipe errors to 4xx responses. Undecodable JSON is a bad
// request; every other recipe error is unprocessable. Anything else is an
// internal error and its details are only logged.
func (a *App) errorStatus(ctx context.Context, err error) (int, errorResponse) {
	var rErr *recipe.Error
	if !errors.As(err, &rErr) {
		ctxlog.FromContext(ctx).Error("Recipe request failed.", "error", err)
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
	resp := errorResponse{Error: err.Error(), Kind: rErr.Kind.String(), Key: rErr.Key}
	if errors.Is(err, recipe.ErrDecode) {
		return http.StatusBadRequest, resp
	}
	return http.StatusUnprocessableEntity, resp
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Debug("HTTP request handled.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ListenAddr, err)
	}

	a.httpServer = &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("🧮 Recipe server starting", "address", ln.Addr().String())
		// Serve returns http.ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return fmt.Errorf("recipe server failed: %w", err)
	case <-ctx.Done():
		return a.closeServer(context.Background())
	}
}

func (a *App) closeServer(ctx context.Context) error {
	if a.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down recipe server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Recipe server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	a.logger.Debug("Recipe server shut down gracefully.")
	return nil
}
