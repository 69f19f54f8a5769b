package ortho

import (
	"math"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
)

// RegionKind distinguishes the two shapes a Region can take.
type RegionKind int

const (
	// KindWhole images the full scene bounding box.
	KindWhole RegionKind = iota
	// KindRect images an explicit X/Y rectangle.
	KindRect
)

// String returns "whole" or "rect".
func (k RegionKind) String() string {
	if k == KindRect {
		return "rect"
	}
	return "whole"
}

// Region is the area to image: either the whole scene or a rectangle
// (X1,Y1)-(X2,Y2) in world X/Y coordinates. Corners may be given in any
// order. The zero value is the whole scene.
type Region struct {
	Kind           RegionKind
	X1, Y1, X2, Y2 float64
}

// Whole returns the whole-scene region.
func Whole() Region {
	return Region{Kind: KindWhole}
}

// Rect returns an explicit rectangle region. An all-zero rectangle is
// still treated as the whole scene by every stage; see [Region.Ambiguous].
func Rect(x1, y1, x2, y2 float64) Region {
	return Region{Kind: KindRect, X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// FromCorners builds a Region from raw corner input (flags, job files,
// API requests), applying the all-zero whole-scene sentinel.
func FromCorners(x1, y1, x2, y2 float64) Region {
	if x1 == 0 && y1 == 0 && x2 == 0 && y2 == 0 {
		return Whole()
	}
	return Rect(x1, y1, x2, y2)
}

// NegateY applies the input convention for Y corners: Y values are entered
// as positive distances south of the origin, so both are negated when both
// are non-zero. If either is zero they pass through unchanged.
func NegateY(y1, y2 float64) (float64, float64) {
	if y1 != 0 && y2 != 0 {
		return -y1, -y2
	}
	return y1, y2
}

// IsWhole reports whether the region images the whole scene, either
// because it was built with [Whole] or because all corners are zero.
func (r Region) IsWhole() bool {
	return r.Kind == KindWhole || r.allZero()
}

// Ambiguous reports whether r was requested as an explicit rectangle but
// collides with the whole-scene sentinel.
func (r Region) Ambiguous() bool {
	return r.Kind == KindRect && r.allZero()
}

func (r Region) allZero() bool {
	return r.X1 == 0 && r.Y1 == 0 && r.X2 == 0 && r.Y2 == 0
}

// Width returns |X1-X2| (zero for the whole scene).
func (r Region) Width() float64 { return math.Abs(r.X1 - r.X2) }

// Height returns |Y1-Y2| (zero for the whole scene).
func (r Region) Height() float64 { return math.Abs(r.Y1 - r.Y2) }

// Validate checks the corners of an explicit rectangle. The whole-scene
// region is always valid.
func (r Region) Validate() error {
	if r.IsWhole() {
		return nil
	}
	for _, c := range []struct {
		name string
		v    float64
	}{{"x1", r.X1}, {"y1", r.Y1}, {"x2", r.X2}, {"y2", r.Y2}} {
		if err := errors.ValidateFinite(c.name, c.v); err != nil {
			return err
		}
	}
	w, h := r.Width(), r.Height()
	switch {
	case w == 0 && h == 0:
		return errors.New(errors.ErrCodeInvalidArgument,
			"region (%g,%g)-(%g,%g) has zero area", r.X1, r.Y1, r.X2, r.Y2)
	case w == 0:
		return errors.New(errors.ErrCodeInvalidArgument, "region has zero width (x1 == x2 == %g)", r.X1)
	case h == 0:
		return errors.New(errors.ErrCodeInvalidArgument, "region has zero height (y1 == y2 == %g)", r.Y1)
	}
	return nil
}

// Resolved is the world-space rectangle the camera has to cover.
//
// XSize and YSize are rounded up to whole world units. MaxDim is the
// largest unrounded dimension including the scene height and drives the
// camera clearance in the Y-up convention. ZDim is the scene's vertical
// extent and drives the clearance in the Z-up convention.
type Resolved struct {
	XCenter float64
	YCenter float64
	XSize   float64
	YSize   float64
	MaxDim  float64
	ZDim    float64
}

// Resolve computes the target rectangle for region inside bbox.
//
// For the whole scene the sizes come from the box extent and the center
// is the box center. For a rectangle the sizes and center come from its
// corners and only the vertical extent of the box is used.
func Resolve(bbox geom.BoundingBox, region Region) (Resolved, error) {
	if err := validateBounds(bbox, region.IsWhole()); err != nil {
		return Resolved{}, err
	}
	if err := region.Validate(); err != nil {
		return Resolved{}, err
	}

	ext := bbox.Extent
	if region.IsWhole() {
		return Resolved{
			XCenter: bbox.Center.X,
			YCenter: bbox.Center.Y,
			XSize:   math.Ceil(ext.X),
			YSize:   math.Ceil(ext.Y),
			MaxDim:  math.Max(ext.X, math.Max(ext.Y, ext.Z)),
			ZDim:    ext.Z,
		}, nil
	}

	w, h := region.Width(), region.Height()
	return Resolved{
		XCenter: math.Min(region.X1, region.X2) + w/2,
		YCenter: math.Min(region.Y1, region.Y2) + h/2,
		XSize:   math.Ceil(w),
		YSize:   math.Ceil(h),
		MaxDim:  math.Max(w, math.Max(h, ext.Z)),
		ZDim:    ext.Z,
	}, nil
}

// validateBounds rejects boxes that cannot be imaged. The whole scene
// needs a positive footprint; a rectangle only needs some geometry.
func validateBounds(bbox geom.BoundingBox, whole bool) error {
	if !bbox.IsFinite() {
		return errors.New(errors.ErrCodeMissingGeometry, "bounding box is not finite: center=%v extent=%v", bbox.Center, bbox.Extent)
	}
	ext := bbox.Extent
	if ext.X < 0 || ext.Y < 0 || ext.Z < 0 {
		return errors.New(errors.ErrCodeMissingGeometry, "bounding box has negative extent %v", ext)
	}
	if ext.X == 0 && ext.Y == 0 && ext.Z == 0 {
		return errors.New(errors.ErrCodeMissingGeometry, "bounding box is empty")
	}
	if whole && (ext.X == 0 || ext.Y == 0) {
		return errors.New(errors.ErrCodeMissingGeometry,
			"scene footprint is degenerate (x=%g, y=%g)", ext.X, ext.Y)
	}
	return nil
}
