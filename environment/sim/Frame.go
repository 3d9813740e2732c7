package sim

import (
	"image"
	"image/color"
)

// Frame is a rendered image. Rows are stored bottom-up as produced by
// OpenGL, so row 0 of the buffers is the bottom row of the image.
type Frame struct {
	Width  int
	Height int

	// RGB holds Width*Height*3 bytes
	RGB []uint8

	// Depth holds Width*Height values in [0, 1], or is nil
	Depth []float64
}

// NewFrame returns a zeroed frame, with a depth buffer if depth is true
func NewFrame(width, height int, depth bool) Frame {
	f := Frame{
		Width:  width,
		Height: height,
		RGB:    make([]uint8, width*height*3),
	}
	if depth {
		f.Depth = make([]float64, width*height)
	}
	return f
}

// FlippedRow returns the buffer row holding image row y, counting from
// the top of the image
func (f Frame) FlippedRow(y int) int {
	return f.Height - 1 - y
}

// RGBAt returns the colour of pixel (x, y) with (0, 0) at the top-left
func (f Frame) RGBAt(x, y int) (r, g, b uint8) {
	i := (f.FlippedRow(y)*f.Width + x) * 3
	return f.RGB[i], f.RGB[i+1], f.RGB[i+2]
}

// DepthAt returns the depth of pixel (x, y) with (0, 0) at the top-left
func (f Frame) DepthAt(x, y int) float64 {
	return f.Depth[f.FlippedRow(y)*f.Width+x]
}

// Image returns the frame as an image with a top-left origin
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// DepthImage returns the frame's depth buffer as a grayscale image with a
// top-left origin
func (f Frame) DepthImage() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(f.DepthAt(x, y) * 0xffff)})
		}
	}
	return img
}

// FrameFromImage converts an image with a top-left origin to a frame
// with a bottom-left origin
func FrameFromImage(img image.Image) Frame {
	bounds := img.Bounds()
	f := NewFrame(bounds.Dx(), bounds.Dy(), false)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (f.FlippedRow(y)*f.Width + x) * 3
			f.RGB[i] = uint8(r >> 8)
			f.RGB[i+1] = uint8(g >> 8)
			f.RGB[i+2] = uint8(b >> 8)
		}
	}
	return f
}
