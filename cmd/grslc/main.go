// Command grslc is the grsl command-line tool.
//
// Usage:
//
//	grslc [options] <input>
//
// The input is a program (.grsl) or a scene (.json).
//
// Examples:
//
//	grslc -check shader.grsl           # Parse and validate
//	grslc -tokens shader.grsl          # Print the token stream
//	grslc -ast shader.grsl             # Print the parsed program
//	grslc -o out.png scene.json        # Render a scene to an image
//	grslc scene.json                   # Print the rendered pixels as hex
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/grsl"
	"github.com/gogpu/grsl/raster"
	"github.com/gogpu/grsl/scene"
	"github.com/gogpu/grsl/syntax"
)

var (
	output  = flag.String("o", "", "output image: .png, .bmp or .tiff (default: hex dump to stdout)")
	scale   = flag.Int("scale", 1, "output image pixels per framebuffer pixel")
	tokens  = flag.Bool("tokens", false, "print the token stream of a program")
	ast     = flag.Bool("ast", false, "print the parsed program")
	check   = flag.Bool("check", false, "parse, validate and load without rendering")
	verbose = flag.Bool("v", false, "log debug output to stderr")
	version = flag.Bool("version", false, "print version")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("grslc version %s\n", grsl.Version)
		return
	}
	if *verbose {
		grsl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]
	var err error
	if strings.EqualFold(filepath.Ext(inputPath), ".json") {
		err = runScene(inputPath)
	} else {
		err = runProgram(inputPath)
	}
	if err != nil {
		report(err)
		os.Exit(1)
	}
}

func runProgram(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if *tokens {
		toks, err := syntax.NewLexer(string(source)).Tokenize()
		if err != nil {
			return err
		}
		for _, tok := range toks {
			fmt.Printf("%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Kind, tok.Lexeme)
		}
		return nil
	}

	prog, err := grsl.ParseFile(path)
	if err != nil {
		return err
	}
	if *ast {
		fmt.Print(prog.String())
		return nil
	}
	if !*check {
		return errors.New("a program can only be checked or dumped; render a scene (.json) instead")
	}
	if _, err := grsl.LoadFiles(path, ""); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}

func runScene(path string) error {
	if *tokens || *ast {
		return errors.New("-tokens and -ast take a program, not a scene")
	}
	s, err := scene.Load(path)
	if err != nil {
		return err
	}
	grsl.Logger().Info("scene loaded", "path", path, "width", s.Width, "height", s.Height,
		"vertices", len(s.Vertices)/max(sum(s.Layout), 1))

	if *check {
		if _, err := s.Shader(); err != nil {
			return err
		}
		fmt.Printf("%s: ok\n", path)
		return nil
	}

	r, err := s.Render()
	if err != nil {
		return err
	}
	fb := r.Framebuffer()
	if *output == "" {
		fmt.Print(fb.Dump())
		return nil
	}
	return writeImage(fb, *output)
}

func writeImage(fb *raster.Framebuffer, path string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := raster.EncodeImage(f, upscale(fb.ToImage(), *scale), format); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	grsl.Logger().Info("image written", "path", path, "format", format)
	fmt.Printf("Successfully rendered %dx%d to %s\n", fb.Width(), fb.Height(), path)
	return nil
}

// upscale enlarges img by an integer factor without smoothing.
func upscale(img *image.RGBA, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

// report prints err, with the offending source line when it carries one.
func report(err error) {
	var list syntax.Errors
	if errors.As(err, &list) {
		fmt.Fprintf(os.Stderr, "Error:\n%s\n", list.FormatAll())
		return
	}
	var srcErr *syntax.Error
	if errors.As(err, &srcErr) && srcErr.Source != "" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", srcErr.FormatWithContext())
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: grslc [options] <program.grsl | scene.json>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  grslc -check shader.grsl      Parse and validate\n")
	fmt.Fprintf(os.Stderr, "  grslc -ast shader.grsl        Print the parsed program\n")
	fmt.Fprintf(os.Stderr, "  grslc -o out.png scene.json   Render a scene\n")
}
