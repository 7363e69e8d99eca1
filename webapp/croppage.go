package webapp

import (
	"fmt"
	"strings"

	"github.com/drummonds/pdfcropper/geometry"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// minDragPixels is the smallest drag that counts as a selection rather than a click
const minDragPixels = 3

// CropPage is the crop editor: open a PDF, draw a rectangle over the page, apply it
type CropPage struct {
	app.Compo
	state     SessionState
	selection *geometry.Selection
	saveName  string
	busy      bool
	message   string
	error     string
}

// OnMount is called when the component is mounted
func (c *CropPage) OnMount(ctx app.Context) {
	var id string
	ctx.SessionStorage().Get("crop-session", &id)
	if id == "" {
		return
	}
	c.busy = true
	callAPI(ctx, "GET", sessionPath(id, ""), nil, func(ctx app.Context, status int, body string) {
		c.busy = false
		result, err := decodeResult(status, body)
		if err != nil || result.State == nil || !result.State.Open {
			// expired or closed on the server
			ctx.SessionStorage().Del("crop-session")
			return
		}
		c.applyState(ctx, *result.State)
	})
}

// hasDocument reports whether a PDF is open in the editor
func (c *CropPage) hasDocument() bool {
	return c.state.ID != "" && c.state.Open
}

// applyState takes a new session snapshot from the server
func (c *CropPage) applyState(ctx app.Context, state SessionState) {
	pageChanged := state.CurrentPage != c.state.CurrentPage || state.ID != c.state.ID
	if state.FileName != c.state.FileName {
		c.saveName = croppedName(state.FileName)
	}
	c.state = state
	c.selection = syncSelection(c.selection, state, pageChanged)
	ctx.SessionStorage().Set("crop-session", state.ID)
}

// syncSelection mirrors the server's selection into the local drag state.
// A drag in progress is left alone.
func syncSelection(sel *geometry.Selection, state SessionState, reset bool) *geometry.Selection {
	if sel == nil || reset {
		sel = geometry.NewSelection(geometry.Rect{X1: float64(state.ImageWidth), Y1: float64(state.ImageHeight)})
	}
	if sel.Dragging() {
		return sel
	}
	if r := state.Selection; r != nil {
		sel.Begin(r.X0, r.Y0)
		sel.Finish(r.X1, r.Y1)
	} else {
		sel.Clear()
	}
	return sel
}

// notify shows the outcome of a request
func (c *CropPage) notify(message string, err error) {
	if err != nil {
		c.error = err.Error()
		c.message = ""
		return
	}
	c.error = ""
	c.message = message
}

// command posts to a session action and refreshes the state from the answer
func (c *CropPage) command(ctx app.Context, method, action string, body any, success string) {
	if !c.hasDocument() || c.busy {
		return
	}
	c.busy = true
	callAPI(ctx, method, sessionPath(c.state.ID, action), body, func(ctx app.Context, status int, raw string) {
		c.busy = false
		result, err := decodeResult(status, raw)
		if err != nil {
			c.notify("", err)
			return
		}
		if result.State != nil {
			c.applyState(ctx, *result.State)
		}
		msg := success
		if result.Message != "" {
			msg = result.Message
		}
		c.notify(msg, nil)
	})
}

// onFileChosen uploads the picked PDF, opening it in the current session or a new one
func (c *CropPage) onFileChosen(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if !files.Truthy() || files.Length() == 0 {
		return
	}
	file := files.Index(0)
	name := file.Get("name").String()

	form := app.Window().Get("FormData").New()
	form.Call("append", "file", file)

	target := "/api/sessions"
	if c.state.ID != "" {
		target = sessionPath(c.state.ID, "open")
	}
	c.busy = true
	c.message = "Opening " + name + "..."
	c.error = ""
	callAPI(ctx, "POST", target, form, func(ctx app.Context, status int, raw string) {
		c.busy = false
		result, err := decodeResult(status, raw)
		if status == 404 && c.state.ID != "" {
			// the session expired, start over with a fresh one
			c.state = SessionState{}
			ctx.SessionStorage().Del("crop-session")
		}
		if err != nil {
			c.notify("", fmt.Errorf("unable to open %s: %w", name, err))
			return
		}
		if result.State != nil {
			c.applyState(ctx, *result.State)
		}
		c.notify(fmt.Sprintf("Opened %s (%d pages).", name, c.state.PageCount), nil)
	})
}

// onStep moves one page back or forward
func (c *CropPage) onStep(delta int) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		c.command(ctx, "POST", "page", map[string]int{"delta": delta}, "")
	}
}

// onMouseDown starts a selection drag
func (c *CropPage) onMouseDown(ctx app.Context, e app.Event) {
	if !c.hasDocument() || c.selection == nil {
		return
	}
	e.PreventDefault()
	c.selection.Begin(e.Get("offsetX").Float(), e.Get("offsetY").Float())
}

// onMouseMove follows the drag
func (c *CropPage) onMouseMove(ctx app.Context, e app.Event) {
	if c.selection == nil || !c.selection.Dragging() {
		return
	}
	c.selection.Update(e.Get("offsetX").Float(), e.Get("offsetY").Float())
}

// onMouseUp finishes the drag and sends the rectangle to the server
func (c *CropPage) onMouseUp(ctx app.Context, e app.Event) {
	if c.selection == nil || !c.selection.Dragging() {
		return
	}
	c.selection.Finish(e.Get("offsetX").Float(), e.Get("offsetY").Float())
	r, _ := c.selection.Rect()
	if r.Width() < minDragPixels || r.Height() < minDragPixels {
		c.selection.Clear()
		c.command(ctx, "DELETE", "selection", nil, "")
		return
	}
	c.command(ctx, "PUT", "selection", r, "")
}

func (c *CropPage) onCrop(ctx app.Context, e app.Event) {
	c.command(ctx, "POST", "crop", nil, "Page cropped.")
}

func (c *CropPage) onCropAll(ctx app.Context, e app.Event) {
	c.command(ctx, "POST", "crop/all", nil, "All pages cropped.")
}

func (c *CropPage) onUndo(ctx app.Context, e app.Event) {
	c.command(ctx, "POST", "undo", nil, "Undone.")
}

func (c *CropPage) onRedo(ctx app.Context, e app.Event) {
	c.command(ctx, "POST", "redo", nil, "Redone.")
}

func (c *CropPage) onSuggest(ctx app.Context, e app.Event) {
	c.command(ctx, "POST", "suggest", map[string]float64{"margin": 6}, "Selected the page content.")
}

func (c *CropPage) onSaveNameChange(ctx app.Context, e app.Event) {
	c.saveName = ctx.JSSrc().Get("value").String()
}

func (c *CropPage) onSave(ctx app.Context, e app.Event) {
	if strings.TrimSpace(c.saveName) == "" {
		c.notify("", fmt.Errorf("enter a file name to save as"))
		return
	}
	c.command(ctx, "POST", "save", map[string]string{"fileName": c.saveName}, "Cropped PDF saved successfully.")
}

func (c *CropPage) onClose(ctx app.Context, e app.Event) {
	if c.state.ID == "" {
		return
	}
	id := c.state.ID
	callAPI(ctx, "DELETE", sessionPath(id, ""), nil, func(ctx app.Context, status int, raw string) {
		ctx.SessionStorage().Del("crop-session")
		c.state = SessionState{}
		c.selection = nil
		c.notify("Document closed.", nil)
	})
}

// Render renders the crop editor
func (c *CropPage) Render() app.UI {
	return app.Div().
		Class("crop-page").
		Body(
			c.renderToolbar(),
			c.renderNotification(),
			app.If(c.hasDocument(), func() app.UI {
				return c.renderStage()
			}).Else(func() app.UI {
				return app.Div().Class("no-results").Body(
					app.Text("Open a PDF to start cropping."),
				)
			}),
		)
}

func (c *CropPage) renderToolbar() app.UI {
	open := c.hasDocument()
	return app.Div().Class("crop-toolbar").Body(
		app.Label().Class("btn file-button").Body(
			app.Text("Open PDF"),
			app.Input().
				Type("file").
				Accept("application/pdf,.pdf").
				Disabled(c.busy).
				OnChange(c.onFileChosen),
		),
		app.Div().Class("crop-nav").Body(
			app.Button().Disabled(!open || c.busy || c.state.CurrentPage == 0).
				OnClick(c.onStep(-1)).Text("◀ Previous"),
			app.Span().Class("page-info").Text(pageLabel(c.state)),
			app.Button().Disabled(!open || c.busy || c.state.CurrentPage >= c.state.PageCount-1).
				OnClick(c.onStep(1)).Text("Next ▶"),
		),
		app.Div().Class("crop-actions").Body(
			app.Button().Disabled(!open || c.busy || c.state.Selection == nil).
				OnClick(c.onCrop).Text("Crop page"),
			app.Button().Disabled(!open || c.busy || c.state.Selection == nil).
				OnClick(c.onCropAll).Text("Apply to all"),
			app.Button().Disabled(!open || c.busy || !c.state.CanUndo).
				OnClick(c.onUndo).Text("Undo"),
			app.Button().Disabled(!open || c.busy || !c.state.CanRedo).
				OnClick(c.onRedo).Text("Redo"),
			app.Button().Disabled(!open || c.busy).
				OnClick(c.onSuggest).Text("Suggest"),
		),
		app.If(open, func() app.UI {
			return app.Div().Class("crop-save").Body(
				app.Input().
					Type("text").
					Value(c.saveName).
					Placeholder("output file name").
					OnChange(c.onSaveNameChange),
				app.Button().Disabled(c.busy).OnClick(c.onSave).Text("Save"),
				app.A().
					Class("btn").
					Href(BuildAPIURL(sessionPath(c.state.ID, "download"))).
					Attr("download", c.saveName).
					Text("Download"),
				app.Button().Class("btn-secondary").Disabled(c.busy).OnClick(c.onClose).Text("Close"),
			)
		}),
	)
}

func (c *CropPage) renderNotification() app.UI {
	if c.error != "" {
		return app.Div().Class("error").Body(app.Text("Error: " + c.error))
	}
	if c.message != "" {
		return app.Div().Class("success").Body(app.Text(c.message))
	}
	return app.Div()
}

func (c *CropPage) renderStage() app.UI {
	var selection *geometry.Rect
	if c.selection != nil {
		if r, ok := c.selection.Rect(); ok {
			selection = &r
		}
	}

	return app.Div().
		Class("crop-stage").
		Style("width", fmt.Sprintf("%dpx", c.state.ImageWidth)).
		Style("height", fmt.Sprintf("%dpx", c.state.ImageHeight)).
		Body(
			app.Img().
				Class("crop-preview").
				Src(BuildAPIURL(previewPath(c.state.ID, c.state.Revision))).
				Alt(fmt.Sprintf("Page %d", c.state.CurrentPage+1)).
				Width(c.state.ImageWidth).
				Height(c.state.ImageHeight),
			app.If(c.state.Crop != nil, func() app.UI {
				return boxUI("crop-box", *c.state.Crop)
			}),
			app.If(selection != nil, func() app.UI {
				return boxUI("selection-box", *selection)
			}),
			app.Div().
				Class("crop-overlay").
				OnMouseDown(c.onMouseDown).
				OnMouseMove(c.onMouseMove).
				OnMouseUp(c.onMouseUp),
		)
}

// boxUI draws a rectangle given in preview pixels
func boxUI(class string, r geometry.Rect) app.UI {
	left, top, width, height := boxStyle(r)
	return app.Div().
		Class(class).
		Style("left", left).
		Style("top", top).
		Style("width", width).
		Style("height", height)
}

// boxStyle returns the CSS position and size of a rectangle
func boxStyle(r geometry.Rect) (left, top, width, height string) {
	r = r.Normalize()
	px := func(v float64) string { return fmt.Sprintf("%.0fpx", v) }
	return px(r.X0), px(r.Y0), px(r.Width()), px(r.Height())
}

// pageLabel is the one-based page indicator
func pageLabel(state SessionState) string {
	if state.PageCount == 0 {
		return "No document"
	}
	return fmt.Sprintf("Page %d of %d", state.CurrentPage+1, state.PageCount)
}
