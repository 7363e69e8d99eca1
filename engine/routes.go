package engine

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/drummonds/pdfcropper/config"
	"github.com/drummonds/pdfcropper/engine/pdfrenderer"
	"github.com/drummonds/pdfcropper/internal/build"
	"github.com/labstack/echo/v4"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	Sessions     *SessionStore
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
}

type pageRequest struct {
	Page  *int `json:"page"`
	Delta int  `json:"delta" validate:"min=-1,max=1"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// selectionRequest is a drag from (x0, y0) to (x1, y1), optionally with the pointer positions in between
type selectionRequest struct {
	X0   float64        `json:"x0"`
	Y0   float64        `json:"y0"`
	X1   float64        `json:"x1"`
	Y1   float64        `json:"y1"`
	Path []pointRequest `json:"path" validate:"max=4096"`
}

type suggestRequest struct {
	Margin float64 `json:"margin" validate:"gte=0,lte=144"`
}

type saveRequest struct {
	FileName string `json:"fileName" validate:"required,max=255"`
}

// AddAPIRoutes registers every session endpoint on the handler's echo instance
func (serverHandler *ServerHandler) AddAPIRoutes() {
	e := serverHandler.Echo
	e.POST("/api/sessions", serverHandler.CreateSession)
	e.GET("/api/sessions/:id", serverHandler.GetSession)
	e.DELETE("/api/sessions/:id", serverHandler.CloseSession)
	e.POST("/api/sessions/:id/open", serverHandler.OpenDocument)
	e.POST("/api/sessions/:id/page", serverHandler.ChangePage)
	e.GET("/api/sessions/:id/preview", serverHandler.GetPreview)
	e.PUT("/api/sessions/:id/selection", serverHandler.SetSelection)
	e.DELETE("/api/sessions/:id/selection", serverHandler.ClearSelection)
	e.POST("/api/sessions/:id/crop", serverHandler.CropPage)
	e.POST("/api/sessions/:id/crop/all", serverHandler.CropAllPages)
	e.POST("/api/sessions/:id/undo", serverHandler.Undo)
	e.POST("/api/sessions/:id/redo", serverHandler.Redo)
	e.POST("/api/sessions/:id/suggest", serverHandler.SuggestCrop)
	e.POST("/api/sessions/:id/save", serverHandler.SaveDocument)
	e.GET("/api/sessions/:id/download", serverHandler.DownloadDocument)
	e.GET("/api/about", serverHandler.GetAboutInfo)
}

// session resolves the :id path parameter
func (serverHandler *ServerHandler) session(c echo.Context) (*Session, error) {
	return serverHandler.Sessions.Get(c.Param("id"))
}

// bindAndValidate decodes the JSON body into req and checks its tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON request")
	}
	if err := c.Validate(req); err != nil {
		if ve, ok := err.(ValidationError); ok {
			return c.JSON(ve.Status, ve)
		}
		return err
	}
	return nil
}

// readUpload returns the name and contents of the multipart "file" field
func readUpload(c echo.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "missing file upload")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(fileHeader.Filename), data, nil
}

// CreateSession opens an uploaded PDF in a new session
// @Summary Open a PDF
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file to crop"
// @Success 201 {object} State
// @Failure 422 {object} map[string]interface{} "Not a PDF"
// @Router /sessions [post]
func (serverHandler *ServerHandler) CreateSession(c echo.Context) error {
	name, data, err := readUpload(c)
	if err != nil {
		return err
	}
	session := serverHandler.Sessions.Create()
	if err := session.Open(name, data); err != nil {
		serverHandler.Sessions.Remove(session.ID.String())
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, session.State())
}

// OpenDocument replaces the session's document with a newly uploaded one
// @Summary Open another PDF in a session
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ULID"
// @Param file formData file true "PDF file to crop"
// @Success 200 {object} State
// @Router /sessions/{id}/open [post]
func (serverHandler *ServerHandler) OpenDocument(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	name, data, err := readUpload(c)
	if err != nil {
		return err
	}
	if err := session.Open(name, data); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session.State())
}

// GetSession returns the session state
// @Summary Session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Router /sessions/{id} [get]
func (serverHandler *ServerHandler) GetSession(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session.State())
}

// CloseSession closes the document and forgets the session
// @Summary Close a session
// @Tags Sessions
// @Param id path string true "Session ULID"
// @Success 204
// @Router /sessions/{id} [delete]
func (serverHandler *ServerHandler) CloseSession(c echo.Context) error {
	if err := serverHandler.Sessions.Remove(c.Param("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangePage jumps to a page or steps one page forward or back
// @Summary Navigate pages
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Router /sessions/{id}/page [post]
func (serverHandler *ServerHandler) ChangePage(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req pageRequest
	if err := bindAndValidate(c, &req); err != nil || c.Response().Committed {
		return err
	}
	if req.Page != nil {
		err = session.GoTo(*req.Page)
	} else {
		err = session.Step(req.Delta)
	}
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session.State())
}

// GetPreview renders the current page as PNG, fitted to the viewport
// @Summary Page preview
// @Tags Sessions
// @Produce png
// @Param id path string true "Session ULID"
// @Success 200 {file} binary
// @Router /sessions/{id}/preview [get]
func (serverHandler *ServerHandler) GetPreview(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	img, err := session.Preview()
	if err != nil {
		return errorResponse(c, err)
	}
	var buf bytes.Buffer
	if err := pdfrenderer.EncodePNG(&buf, img); err != nil {
		return errorResponse(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// SetSelection replays the drag drawn over the preview, in viewport pixels
// @Summary Set the crop selection
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Router /sessions/{id}/selection [put]
func (serverHandler *ServerHandler) SetSelection(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req selectionRequest
	if err := bindAndValidate(c, &req); err != nil || c.Response().Committed {
		return err
	}
	if !session.IsOpen() {
		return errorResponse(c, ErrNoDocument)
	}
	session.BeginSelection(req.X0, req.Y0)
	for _, p := range req.Path {
		session.UpdateSelection(p.X, p.Y)
	}
	session.FinishSelection(req.X1, req.Y1)
	return c.JSON(http.StatusOK, session.State())
}

// ClearSelection drops the drawn rectangle
// @Summary Clear the crop selection
// @Tags Sessions
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Router /sessions/{id}/selection [delete]
func (serverHandler *ServerHandler) ClearSelection(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	session.ClearSelection()
	return c.JSON(http.StatusOK, session.State())
}

// CropPage applies the selection to the current page
// @Summary Crop current page
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{} "Rectangle has no area on this page"
// @Router /sessions/{id}/crop [post]
func (serverHandler *ServerHandler) CropPage(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	crop, err := session.CropCurrentPage()
	if err != nil {
		return errorResponse(c, err)
	}
	state := session.State()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Cropped page %d successfully.", state.CurrentPage+1),
		"crop":    crop,
		"state":   state,
	})
}

// CropAllPages applies the selection to every page, skipping pages it does not fit
// @Summary Crop all pages
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} map[string]interface{}
// @Router /sessions/{id}/crop/all [post]
func (serverHandler *ServerHandler) CropAllPages(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	report, err := session.ApplyToAll()
	if err != nil {
		return errorResponse(c, err)
	}
	message := fmt.Sprintf("Cropped %d pages.", len(report.Applied))
	if len(report.Skipped) > 0 {
		skipped := make([]string, len(report.Skipped))
		for i, failure := range report.Skipped {
			skipped[i] = fmt.Sprint(failure.Page + 1)
		}
		message += fmt.Sprintf(" Skipped page(s) %s.", strings.Join(skipped, ", "))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": message,
		"report":  report,
		"state":   session.State(),
	})
}

// Undo restores the previous crop of the current page
// @Summary Undo crop
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Failure 409 {object} map[string]interface{} "Nothing to undo"
// @Router /sessions/{id}/undo [post]
func (serverHandler *ServerHandler) Undo(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if _, err := session.Undo(); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session.State())
}

// Redo reapplies the last undone crop of the current page
// @Summary Redo crop
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Failure 409 {object} map[string]interface{} "Nothing to redo"
// @Router /sessions/{id}/redo [post]
func (serverHandler *ServerHandler) Redo(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if _, err := session.Redo(); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session.State())
}

// SuggestCrop selects the text extent of the current page
// @Summary Suggest a crop from page content
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} State
// @Router /sessions/{id}/suggest [post]
func (serverHandler *ServerHandler) SuggestCrop(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	req := suggestRequest{Margin: 6}
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil || c.Response().Committed {
			return err
		}
	}
	if _, err := session.Suggest(req.Margin); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, session.State())
}

// SaveDocument writes the cropped PDF into the output directory. The session stays open.
// @Summary Save cropped PDF
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ULID"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{} "Write failed"
// @Router /sessions/{id}/save [post]
func (serverHandler *ServerHandler) SaveDocument(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req saveRequest
	if err := bindAndValidate(c, &req); err != nil || c.Response().Committed {
		return err
	}
	name, ok := outputFileName(req.FileName)
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, NewValidationError(map[string]string{
			"FileName": "not a usable file name",
		}))
	}

	path := filepath.Join(serverHandler.ServerConfig.OutputPath, name)
	if err := session.Save(path); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Cropped PDF saved successfully.",
		"path":    path,
		"state":   session.State(),
	})
}

// DownloadDocument streams the cropped PDF
// @Summary Download cropped PDF
// @Tags Sessions
// @Produce application/pdf
// @Param id path string true "Session ULID"
// @Success 200 {file} binary
// @Router /sessions/{id}/download [get]
func (serverHandler *ServerHandler) DownloadDocument(c echo.Context) error {
	session, err := serverHandler.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var buf bytes.Buffer
	if _, err := session.WriteTo(&buf); err != nil {
		return errorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", CroppedFileName(session.FileName())))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// GetAboutInfo returns build and preview settings
// @Summary About
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	cfg := serverHandler.ServerConfig
	return c.JSON(http.StatusOK, map[string]interface{}{
		"version":        build.Version,
		"renderer":       cfg.Renderer,
		"renderDPI":      cfg.RenderDPI,
		"viewportWidth":  cfg.ViewportWidth,
		"viewportHeight": cfg.ViewportHeight,
		"outputPath":     cfg.OutputPath,
		"sessions":       serverHandler.Sessions.Len(),
	})
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)

// outputFileName reduces a requested name to a safe base name ending in .pdf
func outputFileName(requested string) (string, bool) {
	name := invalidFilenameChars.ReplaceAllString(strings.TrimSpace(requested), "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name, true
}

// CroppedFileName derives the default output name for a source file
func CroppedFileName(source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "document"
	}
	name, _ := outputFileName(base + "-cropped.pdf")
	return name
}
