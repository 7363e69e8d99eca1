package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
type AboutInfo struct {
	Version        string  `json:"version"`
	Renderer       string  `json:"renderer"`
	RenderDPI      float64 `json:"renderDPI"`
	ViewportWidth  int     `json:"viewportWidth"`
	ViewportHeight int     `json:"viewportHeight"`
	OutputPath     string  `json:"outputPath"`
	Sessions       int     `json:"sessions"`
}

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchAboutInfo(ctx)
}

// fetchAboutInfo fetches the about information from the API
func (a *AboutPage) fetchAboutInfo(ctx app.Context) {
	callAPI(ctx, "GET", "/api/about", nil, func(ctx app.Context, status int, body string) {
		a.loading = false
		if status == 0 {
			a.error = "Network error"
			return
		}
		if err := json.Unmarshal([]byte(body), &a.aboutInfo); err != nil {
			a.error = fmt.Sprintf("Failed to parse response: %v", err)
		}
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About pdfcropper"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About pdfcropper"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About pdfcropper"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("Renderer", a.getRendererDisplay()),
					a.renderInfoItem("Open sessions", fmt.Sprint(a.aboutInfo.Sessions)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Preview"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Viewport: "),
						app.Text(a.getViewportDisplay()),
					),
					app.P().Body(
						app.Strong().Text("Render resolution: "),
						app.Text(fmt.Sprintf("%.0f dpi", a.aboutInfo.RenderDPI)),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Output"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Saved files go to: "),
						app.Text(a.aboutInfo.OutputPath),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About pdfcropper"),
				app.P().Text("pdfcropper is a visual PDF crop tool built with Go and WebAssembly."),
				app.P().Text("Draw a rectangle over a page preview and apply it as the crop box of one page or the whole document, with per-page undo and redo."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getRendererDisplay returns a user-friendly renderer name
func (a *AboutPage) getRendererDisplay() string {
	switch a.aboutInfo.Renderer {
	case "fitz", "":
		return "MuPDF (go-fitz)"
	case "pdfium":
		return "PDFium (WebAssembly)"
	default:
		return a.aboutInfo.Renderer
	}
}

// getViewportDisplay returns the preview surface size
func (a *AboutPage) getViewportDisplay() string {
	if a.aboutInfo.ViewportWidth == 0 || a.aboutInfo.ViewportHeight == 0 {
		return "unknown"
	}
	return fmt.Sprintf("%d x %d px", a.aboutInfo.ViewportWidth, a.aboutInfo.ViewportHeight)
}
