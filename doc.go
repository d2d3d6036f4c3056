/*
Package inkbound is a coloring engine for line-art images: it segments a
flat outline bitmap into independently paintable regions and renders
continuous, gap-free brush strokes that stay within the lines of the
region each stroke started in.

The package provides a command line interface for segmenting an outline
and exporting the result, and an interactive preview window for
coloring. To check the supported commands type:

	$ inkbound --help

In case you wish to integrate the API in a self constructed environment
here is a simple example:

	package main

	import (
		"fmt"
		"os"

		"github.com/inkbound/inkbound"
	)

	func main() {
		in, _ := os.Open("outline.png")
		out, _ := os.Create("colored.png")

		p := inkbound.NewProcessor()
		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error processing the outline: %s", err.Error())
		}
	}
*/
package inkbound
