package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/config"
	"github.com/digitorus/pdfstamp/logging"
)

// watermarkFlags binds the watermark flags to w. Defaults come from w, so
// flags override the config file.
func watermarkFlags(fs *flag.FlagSet, w *config.Watermark) {
	fs.StringVar(&w.Text, "text", w.Text, "Watermark text, may contain {{Page}}, {{Pages}} and {{Date}}")
	fs.StringVar(&w.Image, "image", w.Image, "Image file to use instead of text")
	fs.StringVar(&w.Font, "font", w.Font, "Standard font name or TrueType file")
	fs.Float64Var(&w.Size, "size", w.Size, "Font size in points (default 48)")
	fs.BoolVar(&w.Bold, "bold", w.Bold, "Bold text")
	fs.BoolVar(&w.Italic, "italic", w.Italic, "Italic text")
	fs.BoolVar(&w.Underline, "underline", w.Underline, "Underline text")
	fs.StringVar(&w.Color, "color", w.Color, "Text color as #rrggbb (default gray)")
	fs.Float64Var(&w.Opacity, "opacity", w.Opacity, "Opacity from 0 to 1 (default 1)")
	fs.Float64Var(&w.Rotation, "rotate", w.Rotation, "Counter-clockwise rotation, a multiple of 45 degrees")
	fs.StringVar(&w.Anchor, "anchor", w.Anchor, "Position: center, top-left, top-center, ..., bottom-right")
	fs.StringVar(&w.ZOrder, "zorder", w.ZOrder, "Draw above or below the page content")
	fs.Float64Var(&w.Width, "width", w.Width, "Image width in points")
	fs.Float64Var(&w.Tile, "tile", w.Tile, "Repeat the watermark with this spacing in points")
	fs.StringVar(&w.Pages, "pages", w.Pages, "Pages to watermark: all, N, N-M or N-")
}

func WatermarkCommand() {
	// The config file has to be known before the other flags get their
	// defaults.
	cfg, err := loadConfig(configArg(os.Args[2:]))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
		return
	}

	watermarkFlagSet := flag.NewFlagSet("watermark", flag.ExitOnError)
	var configPath string
	var verbose bool
	watermarkFlagSet.StringVar(&configPath, "config", "", "TOML config file (default "+config.DefaultLocation+" if present)")
	watermarkFlagSet.BoolVar(&verbose, "v", false, "Verbose output")
	w := cfg.Watermark
	watermarkFlags(watermarkFlagSet, &w)

	watermarkFlagSet.Usage = func() {
		fmt.Printf("Usage: %s watermark [options] <input.pdf> <output.pdf>\n\n", os.Args[0])
		fmt.Println("Add a text or image watermark to a PDF file")
		fmt.Println("\nOptions:")
		watermarkFlagSet.PrintDefaults()
		fmt.Println("\nExamples:")
		fmt.Printf("  %s watermark -text CONFIDENTIAL -rotate 45 -opacity 0.3 input.pdf output.pdf\n", os.Args[0])
		fmt.Printf("  %s watermark -image logo.png -anchor bottom-right -zorder below input.pdf output.pdf\n", os.Args[0])
		fmt.Printf("  %s watermark -text \"Page {{Page}} of {{Pages}}\" -anchor bottom-center -size 10 input.pdf output.pdf\n", os.Args[0])
	}

	if err := watermarkFlagSet.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse watermark flags: %v\n", err)
		osExit(1)
		return
	}

	if len(watermarkFlagSet.Args()) < 2 {
		watermarkFlagSet.Usage()
		osExit(1)
		return
	}
	setupLogging(verbose)

	input, output := watermarkFlagSet.Arg(0), watermarkFlagSet.Arg(1)
	if err := WatermarkPDF(input, output, w); err != nil {
		logging.Logger().WithError(err).Error("failed to watermark PDF")
		osExit(1)
		return
	}
	logging.Logger().Info("Watermarked PDF written to " + output)
}

// configArg returns the value of a -config flag in args.
func configArg(args []string) string {
	for i, a := range args {
		switch a {
		case "-config", "--config":
			if i+1 < len(args) {
				return args[i+1]
			}
		}
		for _, prefix := range []string{"-config=", "--config="} {
			if len(a) > len(prefix) && a[:len(prefix)] == prefix {
				return a[len(prefix):]
			}
		}
	}
	return ""
}

// WatermarkPDF can be replaced in tests.
var WatermarkPDF = watermarkPDFImpl

func watermarkPDFImpl(input, output string, w config.Watermark) error {
	if w.Text == "" && w.Image == "" {
		return fmt.Errorf("either -text or -image is required")
	}
	doc, err := pdfstamp.OpenFile(input)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	if _, err := w.Apply(doc); err != nil {
		return err
	}
	return writeFile(output, func(f *os.File) error {
		_, err := doc.Write(f)
		return err
	})
}

// writeFile creates path and removes it again when write fails.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
