// Package cli implements the pdfstamp command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/digitorus/pdfstamp/config"
	"github.com/digitorus/pdfstamp/logging"
)

var osExit = os.Exit

func Usage() {
	fmt.Printf("Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Println("Commands:")
	fmt.Println("  watermark  Add a text or image watermark to a PDF file")
	fmt.Println("  images     Assemble images into a new PDF file")
	fmt.Println("")
	fmt.Printf("Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}

// Run dispatches os.Args to a subcommand.
func Run() {
	if len(os.Args) < 2 {
		Usage()
		return
	}
	switch os.Args[1] {
	case "watermark":
		WatermarkCommand()
	case "images":
		ImagesCommand()
	default:
		Usage()
	}
}

// setupLogging installs a text logger on stderr, at debug level when
// verbose is set.
func setupLogging(verbose bool) {
	logging.SetLogger(logging.NewText(os.Stderr, verbose))
}

// loadConfig reads path, or the default location when it exists. An empty
// config is returned when neither is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultLocation); err != nil {
			return &config.Config{}, nil
		}
		path = config.DefaultLocation
	}
	return config.Read(path)
}
