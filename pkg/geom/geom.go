// Package geom provides the small amount of 3D geometry shared by the
// scene loader, the fitting core, and the rendering backends.
//
// Vectors are [r3.Vector] values from github.com/golang/geo, aliased as
// [Vector3] so callers can use either name.
package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vector3 is a point or direction in world space.
type Vector3 = r3.Vector

// Vec constructs a Vector3.
func Vec(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v Vector3) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// BoundingBox is an axis-aligned box described by its center and its
// per-axis extent (full width, not half-width). In JSON the vectors are
// objects with X, Y and Z keys.
type BoundingBox struct {
	Center Vector3 `json:"center"`
	Extent Vector3 `json:"extent"`
}

// FromMinMax builds a BoundingBox from two opposite corners.
// The corners may be given in any order.
func FromMinMax(a, b Vector3) BoundingBox {
	lo := Vec(math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z))
	hi := Vec(math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z))
	return BoundingBox{
		Center: lo.Add(hi).Mul(0.5),
		Extent: hi.Sub(lo),
	}
}

// Min returns the lowest corner of the box.
func (b BoundingBox) Min() Vector3 {
	return b.Center.Sub(b.Extent.Mul(0.5))
}

// Max returns the highest corner of the box.
func (b BoundingBox) Max() Vector3 {
	return b.Center.Add(b.Extent.Mul(0.5))
}

// IsFinite reports whether both center and extent are finite.
func (b BoundingBox) IsFinite() bool {
	return IsFinite(b.Center) && IsFinite(b.Extent)
}

// Bounds accumulates points into an axis-aligned box.
// The zero value is empty and ready to use.
type Bounds struct {
	lo, hi Vector3
	n      int
}

// Extend grows the bounds to include p.
func (b *Bounds) Extend(p Vector3) {
	if b.n == 0 {
		b.lo, b.hi = p, p
	} else {
		b.lo = Vec(math.Min(b.lo.X, p.X), math.Min(b.lo.Y, p.Y), math.Min(b.lo.Z, p.Z))
		b.hi = Vec(math.Max(b.hi.X, p.X), math.Max(b.hi.Y, p.Y), math.Max(b.hi.Z, p.Z))
	}
	b.n++
}

// Box returns the accumulated bounding box. ok is false when no point
// was ever added.
func (b *Bounds) Box() (box BoundingBox, ok bool) {
	if b.n == 0 {
		return BoundingBox{}, false
	}
	return FromMinMax(b.lo, b.hi), true
}
