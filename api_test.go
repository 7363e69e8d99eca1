package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	config "github.com/drummonds/pdfcropper/config"
	"github.com/drummonds/pdfcropper/document"
	engine "github.com/drummonds/pdfcropper/engine"
	"github.com/drummonds/pdfcropper/engine/pdfrenderer"
	"github.com/drummonds/pdfcropper/geometry"
	"github.com/drummonds/pdfcropper/internal/testpdf"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/labstack/echo/v4"
)

// blankRenderer rasterises every page as a white sheet of the requested resolution
type blankRenderer struct{}

func (blankRenderer) Open(data []byte) (pdfrenderer.Pages, error) { return blankPages{}, nil }
func (blankRenderer) Close() error                                { return nil }

type blankPages struct{}

func (blankPages) NumPage() int { return 1 }
func (blankPages) RenderPage(index int, dpi float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, int(612*dpi/72), int(792*dpi/72))), nil
}
func (blankPages) Close() error { return nil }

// setupTestServer creates a test server with all routes configured
func setupTestServer(t *testing.T) (*echo.Echo, *engine.ServerHandler) {
	t.Helper()
	injectGlobals(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))

	serverConfig := config.ServerConfig{
		ViewportWidth:  800,
		ViewportHeight: 800,
		RenderDPI:      144,
		Renderer:       pdfrenderer.KindFitz,
		OutputPath:     t.TempDir(),
		SessionTTL:     time.Hour,
		SweepInterval:  5,
		MaxUploadMB:    10,
	}
	serverHandler := engine.NewServerHandler(serverConfig, blankRenderer{})
	if err := serverHandler.StartupChecks(); err != nil {
		t.Fatalf("StartupChecks failed: %v", err)
	}
	addFrontendRoutes(serverHandler.Echo, serverConfig)
	t.Cleanup(serverHandler.Sessions.CloseAll)
	return serverHandler.Echo, serverHandler
}

// upload posts a PDF as multipart form data
func upload(t *testing.T, e *echo.Echo, target, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// call sends a JSON request (body may be empty)
func call(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) engine.State {
	t.Helper()
	var state engine.State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("Failed to parse state: %v (%s)", err, rec.Body.String())
	}
	return state
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func letterPDF(t *testing.T, pages int) []byte {
	list := make([]testpdf.Page, pages)
	for i := range list {
		list[i] = testpdf.Letter("page")
	}
	return testpdf.Build(t, list...)
}

// TestCropWorkflow walks through open, select, crop, undo, redo, save and download
func TestCropWorkflow(t *testing.T) {
	e, _ := setupTestServer(t)

	rec := upload(t, e, "/api/sessions", "report.pdf", letterPDF(t, 3))
	expectStatus(t, rec, http.StatusCreated)
	state := decodeState(t, rec)
	if !state.Open || state.PageCount != 3 || state.FileName != "report.pdf" {
		t.Fatalf("state after open = %+v", state)
	}
	if state.ImageWidth != 618 || state.ImageHeight != 800 {
		t.Errorf("preview size = %dx%d, want 618x800", state.ImageWidth, state.ImageHeight)
	}
	base := "/api/sessions/" + state.ID

	t.Run("Preview", func(t *testing.T) {
		rec := call(e, http.MethodGet, base+"/preview", "")
		expectStatus(t, rec, http.StatusOK)
		if ct := rec.Header().Get(echo.HeaderContentType); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		img, err := png.Decode(rec.Body)
		if err != nil {
			t.Fatalf("preview is not a PNG: %v", err)
		}
		if img.Bounds().Dx() != 618 || img.Bounds().Dy() != 800 {
			t.Errorf("preview image = %v, want 618x800", img.Bounds().Size())
		}
	})

	t.Run("Crop without selection", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodPost, base+"/crop", ""), http.StatusConflict)
	})

	t.Run("Crop current page", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodPut, base+"/selection", `{"x0":100,"y0":100,"x1":500,"y1":700}`), http.StatusOK)
		rec := call(e, http.MethodPost, base+"/crop", "")
		expectStatus(t, rec, http.StatusOK)
		var result struct {
			Message string        `json:"message"`
			Crop    geometry.Rect `json:"crop"`
			State   engine.State  `json:"state"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		scale := 800.0 / 792.0
		want := geometry.Rect{X0: 100 / scale, Y0: 100 / scale, X1: 500 / scale, Y1: 700 / scale}
		if diff := cmp.Diff(want, result.Crop, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("crop mismatch (-want +got):\n%s", diff)
		}
		if !result.State.CanUndo || result.Message == "" {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("Undo and redo", func(t *testing.T) {
		state := decodeState(t, call(e, http.MethodPost, base+"/undo", ""))
		if state.CanUndo || !state.CanRedo {
			t.Errorf("after undo CanUndo/CanRedo = %v/%v", state.CanUndo, state.CanRedo)
		}
		expectStatus(t, call(e, http.MethodPost, base+"/undo", ""), http.StatusConflict)
		state = decodeState(t, call(e, http.MethodPost, base+"/redo", ""))
		if !state.CanUndo || state.CanRedo {
			t.Errorf("after redo CanUndo/CanRedo = %v/%v", state.CanUndo, state.CanRedo)
		}
		expectStatus(t, call(e, http.MethodPost, base+"/redo", ""), http.StatusConflict)
	})

	t.Run("Selection drag with pointer path", func(t *testing.T) {
		body := `{"x0":900,"y0":-20,"x1":100,"y1":50,"path":[{"x":300,"y":300},{"x":120,"y":60}]}`
		state := decodeState(t, call(e, http.MethodPut, base+"/selection", body))
		want := geometry.Rect{X0: 100, Y0: 0, X1: 800, Y1: 50}
		if state.Selection == nil || *state.Selection != want {
			t.Errorf("Selection = %v, want %+v", state.Selection, want)
		}
		expectStatus(t, call(e, http.MethodPut, base+"/selection", `{"x0":100,"y0":100,"x1":500,"y1":700}`), http.StatusOK)
	})

	t.Run("Apply to all", func(t *testing.T) {
		rec := call(e, http.MethodPost, base+"/crop/all", "")
		expectStatus(t, rec, http.StatusOK)
		var result struct {
			Report engine.BatchReport `json:"report"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]int{0, 1, 2}, result.Report.Applied); diff != "" {
			t.Errorf("applied mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Navigate", func(t *testing.T) {
		state := decodeState(t, call(e, http.MethodPost, base+"/page", `{"page":7}`))
		if state.CurrentPage != 2 {
			t.Errorf("CurrentPage = %d, want 2", state.CurrentPage)
		}
		state = decodeState(t, call(e, http.MethodPost, base+"/page", `{"delta":-1}`))
		if state.CurrentPage != 1 {
			t.Errorf("CurrentPage = %d, want 1", state.CurrentPage)
		}
		if state.Selection != nil {
			t.Error("selection should be cleared after changing page")
		}
		state = decodeState(t, call(e, http.MethodPost, base+"/page", `{"page":-1}`))
		if state.CurrentPage != 0 {
			t.Errorf("CurrentPage = %d, want 0 for a negative page", state.CurrentPage)
		}
		state = decodeState(t, call(e, http.MethodPost, base+"/page", `{"page":1}`))
		if state.CurrentPage != 1 {
			t.Errorf("CurrentPage = %d, want 1", state.CurrentPage)
		}
		expectStatus(t, call(e, http.MethodPost, base+"/page", `{"delta":5}`), http.StatusUnprocessableEntity)
	})

	t.Run("Save keeps session open", func(t *testing.T) {
		rec := call(e, http.MethodPost, base+"/save", `{"fileName":"../escape"}`)
		expectStatus(t, rec, http.StatusOK)
		var result struct {
			Path  string       `json:"path"`
			State engine.State `json:"state"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatal(err)
		}
		if filepath.Base(result.Path) != "_escape.pdf" && filepath.Base(result.Path) != "escape.pdf" {
			t.Errorf("saved to %q", result.Path)
		}
		if !result.State.Open {
			t.Error("session should stay open after save")
		}
		doc, err := document.Open(result.Path)
		if err != nil {
			t.Fatalf("saved file does not open: %v", err)
		}
		if doc.PageCount() != 3 {
			t.Errorf("saved PageCount = %d, want 3", doc.PageCount())
		}
		if got := doc.CropBox(1); got.X0 < 98 || got.X0 > 100 {
			t.Errorf("saved crop of page 2 = %v", got)
		}
	})

	t.Run("Save needs a file name", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodPost, base+"/save", `{}`), http.StatusUnprocessableEntity)
	})

	t.Run("Download", func(t *testing.T) {
		rec := call(e, http.MethodGet, base+"/download", "")
		expectStatus(t, rec, http.StatusOK)
		if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "report-cropped.pdf") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
			t.Error("download is not a PDF")
		}
	})

	t.Run("Open another file in the session", func(t *testing.T) {
		rec := upload(t, e, base+"/open", "other.pdf", letterPDF(t, 1))
		expectStatus(t, rec, http.StatusOK)
		state := decodeState(t, rec)
		if state.FileName != "other.pdf" || state.PageCount != 1 || state.CanUndo {
			t.Errorf("state after reopen = %+v", state)
		}
	})

	t.Run("Close", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodDelete, base, ""), http.StatusNoContent)
		expectStatus(t, call(e, http.MethodGet, base, ""), http.StatusNotFound)
	})
}

func TestSuggestEndpoint(t *testing.T) {
	e, _ := setupTestServer(t)
	state := decodeState(t, upload(t, e, "/api/sessions", "text.pdf", letterPDF(t, 1)))

	rec := call(e, http.MethodPost, "/api/sessions/"+state.ID+"/suggest", `{"margin":4}`)
	expectStatus(t, rec, http.StatusOK)
	if decodeState(t, rec).Selection == nil {
		t.Error("suggest should set a selection")
	}
	expectStatus(t, call(e, http.MethodPost, "/api/sessions/"+state.ID+"/suggest", `{"margin":-1}`), http.StatusUnprocessableEntity)
}

func TestUploadErrors(t *testing.T) {
	e, serverHandler := setupTestServer(t)

	t.Run("Not a PDF", func(t *testing.T) {
		rec := upload(t, e, "/api/sessions", "notes.txt", []byte("hello"))
		expectStatus(t, rec, http.StatusUnprocessableEntity)
		if serverHandler.Sessions.Len() != 0 {
			t.Errorf("failed upload left %d sessions", serverHandler.Sessions.Len())
		}
	})

	t.Run("Missing file field", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodPost, "/api/sessions", ""), http.StatusBadRequest)
	})

	t.Run("Unknown session", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodGet, "/api/sessions/01ARZ3NDEKTSV4RRFFQ69G5FAV", ""), http.StatusNotFound)
		expectStatus(t, call(e, http.MethodGet, "/api/sessions/not-a-ulid/preview", ""), http.StatusNotFound)
	})
}

func TestMiscEndpoints(t *testing.T) {
	e, _ := setupTestServer(t)

	t.Run("Health", func(t *testing.T) {
		rec := call(e, http.MethodGet, "/api/health", "")
		expectStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "healthy") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("About", func(t *testing.T) {
		rec := call(e, http.MethodGet, "/api/about", "")
		expectStatus(t, rec, http.StatusOK)
		var about map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &about); err != nil {
			t.Fatal(err)
		}
		if about["renderer"] != "fitz" || about["viewportWidth"] != float64(800) {
			t.Errorf("about = %v", about)
		}
	})

	t.Run("Unknown API path", func(t *testing.T) {
		rec := call(e, http.MethodGet, "/api/nothing-here", "")
		expectStatus(t, rec, http.StatusNotFound)
		if !strings.Contains(rec.Body.String(), "does not exist") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("Config script", func(t *testing.T) {
		rec := call(e, http.MethodGet, "/config.js", "")
		expectStatus(t, rec, http.StatusOK)
		if !strings.Contains(rec.Body.String(), "window.pdfcropperConfig") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("Stylesheet", func(t *testing.T) {
		expectStatus(t, call(e, http.MethodGet, "/webapp/webapp.css", ""), http.StatusOK)
	})
}
