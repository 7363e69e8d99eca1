package engine

import (
	"fmt"

	"github.com/drummonds/pdfcropper/config"
	"github.com/drummonds/pdfcropper/engine/pdfrenderer"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	serverConfig := serverHandler.ServerConfig
	if err := outputDirectoryChecks(serverConfig); err != nil {
		return err
	}
	return rendererChecks(serverConfig)
}

// outputDirectoryChecks ensures saved PDFs have somewhere to go
func outputDirectoryChecks(serverConfig config.ServerConfig) error {
	if serverConfig.OutputPath == "" {
		Logger.Warn("Output path not configured, saving will write to the working directory")
		return nil
	}
	return config.EnsureDirectory(serverConfig.OutputPath, Logger)
}

func rendererChecks(serverConfig config.ServerConfig) error {
	switch serverConfig.Renderer {
	case pdfrenderer.KindFitz, pdfrenderer.KindPDFium, "":
		Logger.Info("Preview renderer selected", "renderer", serverConfig.Renderer, "dpi", serverConfig.RenderDPI)
		return nil
	default:
		Logger.Error("Unknown preview renderer", "renderer", serverConfig.Renderer)
		return fmt.Errorf("unknown renderer %q", serverConfig.Renderer)
	}
}
