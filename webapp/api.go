package webapp

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/drummonds/pdfcropper/geometry"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// GetAPIBaseURL returns the configured API base URL
// It reads from window.pdfcropperConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	// Check if config is available in browser
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	// Try to get API URL from global config
	config := app.Window().Get("pdfcropperConfig")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			return strings.TrimSuffix(apiURL.String(), "/")
		}
	}

	// Fallback to relative URLs (same origin)
	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/sessions") -> "http://backend:8000/api/sessions"
// or just "/api/sessions" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path // Relative URL
	}
	return baseURL + path
}

// sessionPath returns the API path of a session action, or of the session itself when action is empty
func sessionPath(id, action string) string {
	if action == "" {
		return "/api/sessions/" + id
	}
	return "/api/sessions/" + id + "/" + action
}

// previewPath returns the preview URL for a revision so the browser refetches after every edit
func previewPath(id string, revision int) string {
	return fmt.Sprintf("%s?rev=%d", sessionPath(id, "preview"), revision)
}

// SessionState mirrors the server's session snapshot. Rectangles are in preview pixels.
type SessionState struct {
	ID          string         `json:"id"`
	Open        bool           `json:"open"`
	FileName    string         `json:"fileName"`
	PageCount   int            `json:"pageCount"`
	CurrentPage int            `json:"currentPage"`
	Scale       float64        `json:"scale"`
	ImageWidth  int            `json:"imageWidth"`
	ImageHeight int            `json:"imageHeight"`
	Crop        *geometry.Rect `json:"crop"`
	Selection   *geometry.Rect `json:"selection"`
	CanUndo     bool           `json:"canUndo"`
	CanRedo     bool           `json:"canRedo"`
	Revision    int            `json:"revision"`
}

// PageFailure is a page skipped by apply-to-all
type PageFailure struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// BatchReport lists the pages an apply-to-all touched
type BatchReport struct {
	Applied []int         `json:"applied"`
	Skipped []PageFailure `json:"skipped"`
}

// apiResult is the union of what the session endpoints return
type apiResult struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
	State   *SessionState     `json:"state"`
	Report  *BatchReport      `json:"report"`
	Path    string            `json:"path"`
}

// decodeResult reads a response body. Endpoints that answer with a bare session state
// have it moved into State.
func decodeResult(status int, body string) (apiResult, error) {
	var result apiResult
	if strings.TrimSpace(body) != "" {
		if err := json.Unmarshal([]byte(body), &result); err != nil {
			return result, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	if status == 0 {
		return result, fmt.Errorf("network error")
	}
	if status >= 400 {
		return result, fmt.Errorf("%s", result.failure(status))
	}
	if result.State == nil {
		var state SessionState
		if err := json.Unmarshal([]byte(body), &state); err == nil && state.ID != "" {
			result.State = &state
		}
	}
	return result, nil
}

// failure renders an error body for the notification area
func (r apiResult) failure(status int) string {
	if len(r.Errors) > 0 {
		fields := make([]string, 0, len(r.Errors))
		for field, msg := range r.Errors {
			fields = append(fields, field+" "+msg)
		}
		return "Invalid request: " + strings.Join(fields, "; ")
	}
	if r.Message != "" {
		return r.Message
	}
	if r.Error != "" {
		return r.Error
	}
	return fmt.Sprintf("request failed with status %d", status)
}

// croppedName derives the suggested output name for a source file
func croppedName(source string) string {
	base := strings.TrimSuffix(path.Base(source), path.Ext(source))
	if base == "" || base == "." || base == "/" {
		base = "document"
	}
	return base + "-cropped.pdf"
}

// callAPI sends a request and hands the status and raw body to done on the UI goroutine.
// body may be nil, a browser value such as FormData, or anything encodable as JSON.
// A network failure is reported as status 0.
func callAPI(ctx app.Context, method, path string, body any, done func(ctx app.Context, status int, body string)) {
	options := map[string]any{"method": method}
	switch b := body.(type) {
	case nil:
	case app.Value:
		options["body"] = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			done(ctx, 0, "")
			return
		}
		options["headers"] = map[string]any{"Content-Type": "application/json"}
		options["body"] = string(data)
	}

	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL(path), options)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			response.Call("text").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				text := ""
				if len(args) > 0 {
					text = args[0].String()
				}
				ctx.Dispatch(func(ctx app.Context) {
					done(ctx, status, text)
				})
				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				done(ctx, 0, "")
			})
			return nil
		}))
	})
}
