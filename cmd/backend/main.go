package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	config "github.com/drummonds/pdfcropper/config"
	"github.com/drummonds/pdfcropper/document"
	engine "github.com/drummonds/pdfcropper/engine"
	"github.com/drummonds/pdfcropper/engine/pdfrenderer"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
	document.Logger = Logger
}

// @title pdfcropper Backend API
// @version 1.0
// @description Visual PDF crop tool API - editing sessions, page previews, crop boxes with per-page undo and redo

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @tag.name Sessions
// @tag.description Open, preview, crop and save PDF documents

// @tag.name Admin
// @tag.description Build and preview settings

// @tag.name Health
// @tag.description Service health check

func main() {
	// Parse command-line flags
	port := flag.String("port", "8000", "Port to run backend server on")
	renderer := flag.String("renderer", "", "PDF renderer, fitz or pdfium (overrides config)")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🔧  pdfcropper Backend API Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• API-only mode (no frontend)")
	fmt.Println("• All endpoints under /api/*")
	fmt.Println("• CORS enabled for frontend access")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	if *renderer != "" {
		serverConfig.Renderer = *renderer
	}
	pdfRenderer, err := pdfrenderer.NewRenderer(serverConfig.Renderer)
	if err != nil {
		Logger.Error("Unable to create PDF renderer", "renderer", serverConfig.Renderer, "error", err)
		os.Exit(1)
	}
	defer pdfRenderer.Close()

	serverHandler := engine.NewServerHandler(serverConfig, pdfRenderer)
	defer serverHandler.Sessions.CloseAll()

	Logger.Info("Initializing backend services...")
	scheduler := serverHandler.InitializeSchedules() //initialize all the cron jobs
	defer scheduler.Stop()
	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	Logger.Info("Backend services initialized")

	// Override port if specified via flag
	if *port != "8000" {
		serverConfig.ListenAddrPort = *port
	}

	// Start server
	addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting Backend API Server", "address", addr)
	fmt.Printf("\n✅  Backend API Server running on %s\n", addr)
	fmt.Printf("📡  API endpoints available at http://%s/api/\n", addr)
	fmt.Printf("🏥  Health check: http://%s/api/health\n\n", addr)

	if err := serverHandler.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
