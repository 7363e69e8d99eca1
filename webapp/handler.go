package webapp

import (
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Routes are the client side paths served by the App component
var Routes = []string{"/", "/about"}

// RegisterRoutes registers every page with go-app, on the server and in the browser
func RegisterRoutes() {
	for _, path := range Routes {
		app.Route(path, func() app.Composer { return &App{} })
	}
}

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	RegisterRoutes()
	app.RunWhenOnBrowser()

	// app.wasm is served from the local web/ directory by the go-app handler
	return &app.Handler{
		Name:        "pdfcropper",
		Title:       "pdfcropper",
		Description: "Visual PDF crop tool",
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
