package webapp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestHandlerRoutes tests that all expected routes are registered
func TestHandlerRoutes(t *testing.T) {
	handler := Handler()

	tests := []struct {
		name string
		path string
	}{
		{
			name: "Crop page",
			path: "/",
		},
		{
			name: "About page",
			path: "/about",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code == http.StatusNotFound {
				t.Errorf("Route %s returned 404 Not Found - route may not be registered", tt.path)
			}

			contentType := rec.Header().Get("Content-Type")
			if !strings.Contains(contentType, "text/html") && rec.Code == http.StatusOK {
				t.Logf("Note: Route %s returned status %d with Content-Type: %s", tt.path, rec.Code, contentType)
			}
		})
	}
}

// TestPageFor tests that paths map onto the expected components
func TestPageFor(t *testing.T) {
	if _, ok := pageFor("/").(*CropPage); !ok {
		t.Error("/ should render the crop page")
	}
	if _, ok := pageFor("/about").(*AboutPage); !ok {
		t.Error("/about should render the about page")
	}
	if _, ok := pageFor("/browse").(*NotFoundPage); !ok {
		t.Error("unknown paths should render the not found page")
	}
}
