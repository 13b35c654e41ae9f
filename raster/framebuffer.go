package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Framebuffer is a row-major grid of packed 0xRRGGBB colors with a
// parallel depth buffer.
type Framebuffer struct {
	width   int
	height  int
	color   []uint32
	depth   []float32
	covered []bool
	alpha   uint8 // alpha of uncovered pixels
}

// NewFramebuffer creates a cleared width x height framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		width:   width,
		height:  height,
		color:   make([]uint32, width*height),
		depth:   make([]float32, width*height),
		covered: make([]bool, width*height),
	}
	fb.Clear(gputypes.ColorTransparent)
	return fb
}

// Width returns the framebuffer width in pixels.
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the framebuffer height in pixels.
func (fb *Framebuffer) Height() int { return fb.height }

// Clear fills the color buffer with c and the depth buffer with +Inf.
func (fb *Framebuffer) Clear(c gputypes.Color) {
	packed := PackColor(float32(c.R*255), float32(c.G*255), float32(c.B*255))
	inf := float32(math.Inf(1))
	for i := range fb.color {
		fb.color[i] = packed
		fb.depth[i] = inf
		fb.covered[i] = false
	}
	fb.alpha = uint8(clampChannel(float32(c.A * 255)))
}

// Pixels returns the color buffer. The slice is owned by the framebuffer
// and refreshed by every draw.
func (fb *Framebuffer) Pixels() []uint32 {
	return fb.color
}

// At returns the packed color at (x, y).
func (fb *Framebuffer) At(x, y int) uint32 {
	return fb.color[y*fb.width+x]
}

// DepthAt returns the stored depth at (x, y).
func (fb *Framebuffer) DepthAt(x, y int) float32 {
	return fb.depth[y*fb.width+x]
}

// Covered reports whether a fragment has been written at (x, y).
func (fb *Framebuffer) Covered(x, y int) bool {
	return fb.covered[y*fb.width+x]
}

// Set writes color and depth at (x, y).
func (fb *Framebuffer) Set(x, y int, c uint32, depth float32) {
	i := y*fb.width + x
	fb.color[i] = c
	fb.depth[i] = depth
	fb.covered[i] = true
}

// ToImage converts the framebuffer to an RGBA image. Covered pixels are
// opaque; the rest carry the clear color's alpha.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			c := fb.At(x, y)
			a := fb.alpha
			if fb.Covered(x, y) {
				a = 0xFF
			}
			img.SetRGBA(x, y, premultiply(c, a))
		}
	}
	return img
}

func premultiply(c uint32, a uint8) color.RGBA {
	scale := func(v uint32) uint8 {
		return uint8((v & 0xFF) * uint32(a) / 0xFF)
	}
	return color.RGBA{R: scale(c >> 16), G: scale(c >> 8), B: scale(c), A: a}
}

// Image formats accepted by Encode.
const (
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// Encode writes the framebuffer as an image in the given format.
func (fb *Framebuffer) Encode(w io.Writer, format string) error {
	return EncodeImage(w, fb.ToImage(), format)
}

// EncodeImage writes img in the given format: png, bmp or tiff.
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF, "tif":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("raster: unsupported image format %q", format)
	}
}

// Dump renders the color buffer as rows of hex values, one row per line.
func (fb *Framebuffer) Dump() string {
	var sb strings.Builder
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%06x", fb.At(x, y))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PackColor packs three 0-255 channels into 0xRRGGBB. Each channel is
// clamped to 0..255 and truncated.
func PackColor(r, g, b float32) uint32 {
	return clampChannel(r)<<16 | clampChannel(g)<<8 | clampChannel(b)
}

func clampChannel(v float32) uint32 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint32(v)
	}
}
