// Command qoiconv reads one image file (any format registered with
// the standard image package, including "qoi" itself) and writes
// "<stem>.qoi" in the current working directory.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/qoigo/qoi"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <input-image>\n", filepath.Base(os.Args[0]))
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := convert(flag.Arg(0)); err != nil {
		slog.Error("qoiconv failed", "err", err)
		os.Exit(1)
	}
}

func convert(inputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer in.Close()

	img, format, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", inputPath, err)
	}
	slog.Info("decoded image", "path", inputPath, "format", format, "bounds", img.Bounds())

	outPath := stem(inputPath) + ".qoi"
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	if err := qoi.Encode(out, img); err != nil {
		return fmt.Errorf("encoding %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}
	slog.Info("wrote qoi image", "path", outPath)
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
