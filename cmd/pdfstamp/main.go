// Command pdfstamp watermarks PDF files and assembles images into PDFs.
package main

import "github.com/digitorus/pdfstamp/cli"

func main() {
	cli.Run()
}
