package engine

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/drummonds/pdfcropper/config"
	"github.com/drummonds/pdfcropper/engine/pdfrenderer"
	"github.com/drummonds/pdfcropper/geometry"
	"github.com/drummonds/pdfcropper/internal/build"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServerHandler builds the echo instance, the session store and every API route.
// Callers add their own frontend routes before starting the server.
func NewServerHandler(serverConfig config.ServerConfig, renderer pdfrenderer.Renderer) *ServerHandler {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = apiErrorHandler(e)

	sessions := NewSessionStore(SessionOptions{
		Open:     OpenPDF,
		Renderer: renderer,
		Viewport: geometry.Viewport{
			Width:  float64(serverConfig.ViewportWidth),
			Height: float64(serverConfig.ViewportHeight),
		},
		DPI: serverConfig.RenderDPI,
	}, serverConfig.SessionTTL)

	// CORS configuration - allow frontend from different origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	if serverConfig.MaxUploadMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", serverConfig.MaxUploadMB)))
	}

	serverHandler := &ServerHandler{Sessions: sessions, Echo: e, ServerConfig: serverConfig}
	serverHandler.AddAPIRoutes()

	// Health check endpoint
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "pdfcropper",
			"version": build.Version,
		})
	})
	return serverHandler
}

// apiErrorHandler answers unknown API paths with JSON instead of the default HTML
func apiErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound && strings.HasPrefix(c.Request().URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}

		// For other errors, use default handler
		e.DefaultHTTPErrorHandler(err, c)
	}
}
