package raster

import (
	"image"
	"image/color"
	"math"
)

// frameBuffer holds the render target as flat slices. depth is the
// distance below the camera; smaller is nearer.
type frameBuffer struct {
	width  int
	height int
	color  []uint8   // NRGBA interleaved, len = w*h*4
	depth  []float64 // len = w*h, initialized to +inf
}

func newFrameBuffer(w, h int, bg color.NRGBA) *frameBuffer {
	n := w * h
	fb := &frameBuffer{
		width:  w,
		height: h,
		color:  make([]uint8, n*4),
		depth:  make([]float64, n),
	}
	for i := range fb.depth {
		fb.depth[i] = math.Inf(1)
	}
	if bg != (color.NRGBA{}) {
		for i := 0; i < n; i++ {
			fb.color[i*4] = bg.R
			fb.color[i*4+1] = bg.G
			fb.color[i*4+2] = bg.B
			fb.color[i*4+3] = bg.A
		}
	}
	return fb
}

// image wraps the colour buffer without copying.
func (fb *frameBuffer) image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    fb.color,
		Stride: fb.width * 4,
		Rect:   image.Rect(0, 0, fb.width, fb.height),
	}
}
