package engine

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/drummonds/pdfcropper/document"
	"github.com/drummonds/pdfcropper/geometry"
	"github.com/labstack/echo/v4"
)

// errorStatus maps the error taxonomy onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, ErrNoDocument),
		errors.Is(err, ErrNoSelection),
		errors.Is(err, ErrNothingToUndo),
		errors.Is(err, ErrNothingToRedo):
		return http.StatusConflict
	case errors.Is(err, geometry.ErrDegenerateRegion),
		errors.Is(err, geometry.ErrInvalidGeometry),
		errors.Is(err, document.ErrInvalidRectangle),
		errors.Is(err, document.ErrParse),
		errors.Is(err, document.ErrNoContent):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse writes err as a JSON error body
func errorResponse(c echo.Context, err error) error {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		Logger.Error("Request failed", "path", c.Request().URL.Path, "error", err)
	} else {
		Logger.Debug("Request rejected", "path", c.Request().URL.Path, "status", code, "error", err)
	}
	return c.JSON(code, map[string]string{
		"error":   http.StatusText(code),
		"message": err.Error(),
	})
}
