package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/config"
	"github.com/digitorus/pdfstamp/logging"
)

func ImagesCommand() {
	cfg, err := loadConfig(configArg(os.Args[2:]))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
		return
	}

	imagesFlags := flag.NewFlagSet("images", flag.ExitOnError)
	var configPath string
	var verbose bool
	c := cfg.Images
	imagesFlags.StringVar(&configPath, "config", "", "TOML config file (default "+config.DefaultLocation+" if present)")
	imagesFlags.BoolVar(&verbose, "v", false, "Verbose output")
	imagesFlags.StringVar(&c.PageSize, "page-size", c.PageSize, "Page size: a3, a4, a5, letter or legal (default a4)")
	imagesFlags.BoolVar(&c.Landscape, "landscape", c.Landscape, "Landscape pages")
	imagesFlags.IntVar(&c.Cells, "cells", c.Cells, "Images per page: 1, 2 or 4 (default 1)")
	imagesFlags.Float64Var(&c.Quality, "quality", c.Quality, "JPEG quality of re-encoded images, in (0, 1] (default 0.9)")
	imagesFlags.Float64Var(&c.Padding, "padding", c.Padding, "Padding around each cell in points")

	imagesFlags.Usage = func() {
		fmt.Printf("Usage: %s images [options] <output.pdf> <image>...\n\n", os.Args[0])
		fmt.Println("Assemble images into a new PDF file, correcting their orientation")
		fmt.Println("\nOptions:")
		imagesFlags.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s images scans.pdf page1.jpg page2.jpg\n", os.Args[0])
		fmt.Printf("  %s images -cells 4 -landscape -padding 10 contact.pdf *.jpg\n", os.Args[0])
	}

	if err := imagesFlags.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse images flags: %v\n", err)
		osExit(1)
		return
	}

	if len(imagesFlags.Args()) < 2 {
		imagesFlags.Usage()
		osExit(1)
		return
	}
	setupLogging(verbose)

	output := imagesFlags.Arg(0)
	if err := ImagesPDF(output, imagesFlags.Args()[1:], c); err != nil {
		logging.Logger().WithError(err).Error("failed to assemble images")
		osExit(1)
		return
	}
	logging.Logger().Info("Image PDF written to " + output)
}

// ImagesPDF can be replaced in tests.
var ImagesPDF = imagesPDFImpl

func imagesPDFImpl(output string, inputs []string, c config.Images) error {
	spec, err := c.Spec()
	if err != nil {
		return err
	}
	doc := pdfstamp.NewImageDocument(spec)
	for _, path := range inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc.AddImage(filepath.Base(path), data)
	}
	return writeFile(output, func(f *os.File) error {
		_, err := doc.Write(f)
		return err
	})
}
