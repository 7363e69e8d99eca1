package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// routeTitles names the pages offered from the 404 page, keyed by route
var routeTitles = map[string]string{
	"/":      "✂️ Crop editor",
	"/about": "ℹ️ About",
}

// NotFoundPage is shown for paths outside Routes
type NotFoundPage struct {
	app.Compo
	Path string
}

// Render renders the 404 page with links to every known page
func (p *NotFoundPage) Render() app.UI {
	message := "This page does not exist."
	if p.Path != "" {
		message = "Nothing is served at " + p.Path + "."
	}

	return app.Div().
		Class("not-found-page").
		Body(
			app.Div().
				Class("not-found-container").
				Body(
					app.H1().
						Class("not-found-title").
						Text("404"),
					app.P().
						Class("not-found-message").
						Text(message),
					app.Ul().
						Class("not-found-actions").
						Body(
							app.Range(Routes).Slice(func(i int) app.UI {
								return app.Li().Body(
									app.A().
										Href(Routes[i]).
										Class("not-found-home-link").
										Text(routeTitle(Routes[i])),
								)
							}),
						),
				),
		)
}

func routeTitle(path string) string {
	if title, ok := routeTitles[path]; ok {
		return title
	}
	return path
}
