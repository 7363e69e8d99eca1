package main

import (
	"context"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/drummonds/pdfcropper/internal/testpdf"
)

// TestCropPageWithChromedp loads the editor in a headless browser, opens a PDF and checks the preview
func TestCropPageWithChromedp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Check if a browser is available
	browsers := []string{"chromium", "chromium-browser", "google-chrome", "chrome"}
	browserFound := false
	for _, browser := range browsers {
		if _, err := exec.LookPath(browser); err == nil {
			browserFound = true
			break
		}
	}
	if !browserFound {
		t.Skip("No Chrome/Chromium browser found, skipping chromedp test")
	}
	if _, err := os.Stat("web/app.wasm"); err != nil {
		t.Skip("web/app.wasm not built, skipping chromedp test")
	}

	e, _ := setupTestServer(t)
	server := httptest.NewServer(e)
	defer server.Close()

	fixture := testpdf.WriteFile(t, "letter.pdf", testpdf.Letter("one"), testpdf.Letter("two"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	err := chromedp.Run(taskCtx,
		chromedp.Navigate(server.URL+"/"),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		t.Skipf("Chromedp failed to navigate (browser may not be compatible): %v", err)
	}

	var pageInfo string
	var previewWidth, previewHeight int
	err = chromedp.Run(taskCtx,
		chromedp.WaitVisible(".crop-page", chromedp.ByQuery),
		chromedp.SetUploadFiles(`.crop-toolbar input[type="file"]`, []string{fixture}, chromedp.ByQuery),
		chromedp.WaitVisible(".crop-preview", chromedp.ByQuery),
		chromedp.Poll(`document.querySelector('.crop-preview').naturalWidth > 0`, nil),
		chromedp.Text(".page-info", &pageInfo, chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelector('.crop-preview').naturalWidth`, &previewWidth),
		chromedp.Evaluate(`document.querySelector('.crop-preview').naturalHeight`, &previewHeight),
	)
	if err != nil {
		t.Fatalf("Failed to open a PDF in the editor: %v", err)
	}

	if pageInfo != "Page 1 of 2" {
		t.Errorf("page info = %q, want Page 1 of 2", pageInfo)
	}
	if previewWidth != 618 || previewHeight != 800 {
		t.Errorf("preview size = %dx%d, want 618x800", previewWidth, previewHeight)
	}
}
