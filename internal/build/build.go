// Package build carries values stamped in at link time.
package build

// Version is set with -ldflags "-X github.com/drummonds/pdfcropper/internal/build.Version=..."
var Version = "dev"
