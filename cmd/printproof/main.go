// Command printproof renders a saved layout to a PNG at print resolution
// without opening a window. Useful for checking a composition before
// spending paper and ink.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"

	"printlayout/internal/imagestore"
	"printlayout/internal/project"
	"printlayout/internal/render"
)

func main() {
	projectPath := flag.String("project", "", "Path to a saved layout ("+project.FileExt+")")
	outPath := flag.String("out", "proof.png", "Output PNG path")
	dpi := flag.Float64("dpi", 300, "Render resolution")
	flag.Parse()

	if *projectPath == "" {
		fmt.Println("Usage: printproof -project <path" + project.FileExt + "> [-out proof.png] [-dpi 300]")
		os.Exit(1)
	}

	file, err := project.Load(*projectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load project: %v\n", err)
		os.Exit(1)
	}
	lay := file.Layout()

	fmt.Printf("Loaded %q: %d images on %.1f x %.1f mm\n",
		file.Name, len(lay.Images), lay.Page.WidthMM, lay.Page.HeightMM)

	store := imagestore.New(imagestore.Config{})
	composite, err := render.PrintComposite(context.Background(), lay, store, *dpi)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Render failed: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := png.Encode(out, composite); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode PNG: %v\n", err)
		os.Exit(1)
	}

	b := composite.Bounds()
	fmt.Printf("Wrote %s (%dx%d px at %.0f DPI)\n", *outPath, b.Dx(), b.Dy(), *dpi)
}
