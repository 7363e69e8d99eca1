package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP   string
	ListenAddrPort string
	ViewportWidth  int // preview surface width in pixels
	ViewportHeight int // preview surface height in pixels
	RenderDPI      float64
	Renderer       string // fitz or pdfium
	OutputPath     string // absolute path saved PDFs are written to
	SessionTTL     time.Duration
	SweepInterval  int // minutes between idle session sweeps
	MaxUploadMB    int
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	ServerAPIURL string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

// positive returns value, or fallback when value is not above zero
func positive[T int | float64](key string, value, fallback T, logger *slog.Logger) T {
	if value > 0 {
		return value
	}
	logger.Warn("Ignoring non-positive setting, using default", "key", key, "value", value, "default", fallback)
	return fallback
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	serverConfigLive := ServerConfig{}

	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Preview configuration
	serverConfigLive.ViewportWidth = positive("VIEWPORT_WIDTH", getEnvInt("VIEWPORT_WIDTH", 800), 800, logger)
	serverConfigLive.ViewportHeight = positive("VIEWPORT_HEIGHT", getEnvInt("VIEWPORT_HEIGHT", 800), 800, logger)
	serverConfigLive.RenderDPI = positive("RENDER_DPI", getEnvFloat("RENDER_DPI", 144), 144, logger)
	serverConfigLive.Renderer = getEnv("PDF_RENDERER", "fitz")
	logger.Info("Preview configuration loaded",
		"viewport", fmt.Sprintf("%dx%d", serverConfigLive.ViewportWidth, serverConfigLive.ViewportHeight),
		"dpi", serverConfigLive.RenderDPI,
		"renderer", serverConfigLive.Renderer)

	// Output configuration
	outputDir := filepath.ToSlash(getEnv("OUTPUT_PATH", "output"))
	outputDirAbs, err := filepath.Abs(outputDir)
	if err != nil {
		logger.Error("Failed creating absolute path for output directory", "error", err)
		outputDirAbs = outputDir
	}
	serverConfigLive.OutputPath = outputDirAbs

	// Session configuration
	serverConfigLive.SessionTTL = time.Duration(positive("SESSION_TTL", getEnvInt("SESSION_TTL", 60), 60, logger)) * time.Minute
	serverConfigLive.SweepInterval = positive("SESSION_SWEEP_INTERVAL", getEnvInt("SESSION_SWEEP_INTERVAL", 5), 5, logger)
	serverConfigLive.MaxUploadMB = positive("MAX_UPLOAD_MB", getEnvInt("MAX_UPLOAD_MB", 100), 100, logger)

	// Frontend configuration
	serverConfigLive.FrontEndConfig = FrontEndConfig{
		ServerAPIURL: getEnv("SERVER_API_URL", ""),
	}

	if getEnvBool("PRINT_BANNER", true) {
		fmt.Println("\n========================================")
		fmt.Println("   pdfcropper - Visual PDF Crop Tool")
		fmt.Println("========================================")
		fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
		if serverConfigLive.ListenAddrIP == "" {
			fmt.Println("(Listening on all network interfaces)")
		}
		fmt.Printf("Saved files go to: %s\n", serverConfigLive.OutputPath)
		fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "pdfcropper.log"))
	}

	return serverConfigLive, logger
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	_ = godotenv.Load("frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := FrontEndConfig{
		ServerAPIURL: getEnv("SERVER_API_URL", "http://localhost:8000"),
	}
	logger.Info("Frontend configuration loaded", "apiURL", frontendConfig.ServerAPIURL)

	return frontendConfig, logger
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "debug")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdfcropper.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

// EnsureDirectory makes sure path exists and is a directory, creating it when missing
func EnsureDirectory(path string, logger *slog.Logger) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("Creating directory", "path", path)
			if err := os.MkdirAll(path, 0755); err != nil {
				logger.Error("Failed to create directory", "path", path, "error", err)
				return err
			}
			return nil
		}
		logger.Error("Error checking directory", "path", path, "error", err)
		return err
	}
	if !info.IsDir() {
		logger.Error("Path exists but is not a directory", "path", path)
		return fmt.Errorf("not a directory: %s", path)
	}
	logger.Debug("Directory exists", "path", path)
	return nil
}
