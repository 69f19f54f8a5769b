package raster

import (
	"image/color"
	"math"
)

// screenVertex is a vertex projected into supersampled pixel space. d is
// the depth below the camera.
type screenVertex struct {
	x, y, d float64
}

// rasterizeTriangle fills one triangle with a flat colour. Fragments
// outside [near, far] are discarded; the rest are depth tested.
//
// This is the hot path: no allocations in the pixel loop.
func rasterizeTriangle(fb *frameBuffer, a, b, c screenVertex, col color.NRGBA, near, far float64) {
	minX := int(math.Floor(math.Min(a.x, math.Min(b.x, c.x))))
	maxX := int(math.Ceil(math.Max(a.x, math.Max(b.x, c.x))))
	minY := int(math.Floor(math.Min(a.y, math.Min(b.y, c.y))))
	maxY := int(math.Ceil(math.Max(a.y, math.Max(b.y, c.y))))

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > fb.width-1 {
		maxX = fb.width - 1
	}
	if maxY > fb.height-1 {
		maxY = fb.height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup. Vertical faces project to a line and vanish.
	det := (b.y-c.y)*(a.x-c.x) + (c.x-b.x)*(a.y-c.y)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det

	dy12 := b.y - c.y
	dx21 := c.x - b.x
	dy20 := c.y - a.y
	dx02 := a.x - c.x

	for sy := minY; sy <= maxY; sy++ {
		// Sample at pixel centers.
		dsy := float64(sy) + 0.5 - c.y
		row := sy * fb.width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - c.x
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			d := w0*a.d + w1*b.d + w2*c.d
			if d < near || d > far {
				continue
			}
			i := row + sx
			if d >= fb.depth[i] {
				continue
			}
			fb.depth[i] = d

			p := i * 4
			fb.color[p] = col.R
			fb.color[p+1] = col.G
			fb.color[p+2] = col.B
			fb.color[p+3] = col.A
		}
	}
}
