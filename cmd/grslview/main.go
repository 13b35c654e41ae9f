// Command grslview renders a grsl scene and shows it in a window.
//
// Usage:
//
//	grslview [options] <scene.json>
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gogpu/grsl"
	"github.com/gogpu/grsl/raster"
	"github.com/gogpu/grsl/scene"
	"github.com/gogpu/grsl/shader"
)

var (
	scale   = flag.Int("scale", 4, "window pixels per framebuffer pixel")
	live    = flag.Bool("live", false, "re-render the scene on every tick")
	verbose = flag.Bool("v", false, "log debug output to stderr")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: grslview [options] <scene.json>\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		grsl.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	v, err := newViewer(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ebiten.SetWindowTitle("grslview: " + flag.Arg(0))
	ebiten.SetWindowSize(v.scene.Width*max(*scale, 1), v.scene.Height*max(*scale, 1))
	ebiten.SetTPS(30)
	if err := ebiten.RunGame(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// viewer is an ebiten.Game presenting a scene's framebuffer.
type viewer struct {
	scene  *scene.Scene
	shader *shader.Shader
	layout *raster.AttribLayout
	r      *raster.Rasterizer

	img   *ebiten.Image
	dirty bool
}

func newViewer(path string) (*viewer, error) {
	s, err := scene.Load(path)
	if err != nil {
		return nil, err
	}
	sh, err := s.Shader()
	if err != nil {
		return nil, err
	}
	layout, err := s.AttribLayout()
	if err != nil {
		return nil, err
	}
	r, err := raster.New(s.Options())
	if err != nil {
		return nil, err
	}
	v := &viewer{scene: s, shader: sh, layout: layout, r: r}
	if err := v.render(); err != nil {
		return nil, err
	}
	grsl.Logger().Info("scene loaded", "path", path, "width", s.Width, "height", s.Height)
	return v, nil
}

func (v *viewer) render() error {
	if err := v.r.Draw(v.shader, v.layout, v.scene.Vertices); err != nil {
		return err
	}
	v.dirty = true
	return nil
}

func (v *viewer) Update() error {
	if *live {
		return v.render()
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	fb := v.r.Framebuffer()
	if v.img == nil {
		v.img = ebiten.NewImage(fb.Width(), fb.Height())
	}
	if v.dirty {
		// Both sides use premultiplied alpha.
		v.img.WritePixels(fb.ToImage().Pix)
		v.dirty = false
	}
	screen.DrawImage(v.img, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	fb := v.r.Framebuffer()
	return fb.Width(), fb.Height()
}
