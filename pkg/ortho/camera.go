package ortho

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
)

// Convention selects which world axis the scene was authored with as
// "up". The scene loader normalizes geometry for Y-up files, but the
// camera offset is still computed differently for the two conventions.
type Convention int

const (
	// ZUp is the default: Z is vertical and the camera sits above the scene.
	ZUp Convention = iota
	// YUp marks scenes authored with Y as the vertical axis.
	YUp
)

// String returns "z-up" or "y-up".
func (c Convention) String() string {
	switch c {
	case ZUp:
		return "z-up"
	case YUp:
		return "y-up"
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// ZUpFlag reports whether c is [ZUp]; this is the boolean the CLI and the
// output file names use.
func (c Convention) ZUpFlag() bool { return c == ZUp }

// Valid reports whether c is one of the known conventions.
func (c Convention) Valid() bool { return c == ZUp || c == YUp }

// ConventionFromZUp maps the boolean --z-up flag onto a Convention.
func ConventionFromZUp(zUp bool) Convention {
	if zUp {
		return ZUp
	}
	return YUp
}

// ParseConvention accepts "z", "z-up", "zup", "y", "y-up", "yup" and the
// boolean spellings "true"/"false" (true meaning Z-up).
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "z", "z-up", "zup", "true":
		return ZUp, nil
	case "y", "y-up", "yup", "false":
		return YUp, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidArgument, "invalid convention %q (must be z-up or y-up)", s)
}

// Placement is the camera's world transform. Rotation holds Euler angles
// in degrees and is always zero: the scene is aligned so that an
// unrotated camera looks straight down the vertical axis.
type Placement struct {
	Position geom.Vector3
	Rotation geom.Vector3
}

// placementCase is one cell of the region × convention table.
type placementCase struct {
	whole bool
	conv  Convention
}

// Place computes the camera placement for a resolved region.
//
// center is the bounding-box center of the scene; whole tells whether the
// region is the whole scene. The four cases are:
//
//	whole, ZUp:  (c.x, c.y, z + z/10)
//	whole, YUp:  (c.x, c.z, -c.y + max + max/10)
//	rect,  ZUp:  (xc,  yc,  z + z/10)
//	rect,  YUp:  (xc,  yc,  -c.y + max + max/10)
//
// Place panics on a convention that is not [ZUp] or [YUp]; [Fit]
// validates conventions before calling it.
func Place(center geom.Vector3, r Resolved, conv Convention, whole bool) Placement {
	var pos geom.Vector3

	switch (placementCase{whole, conv}) {
	case placementCase{true, ZUp}:
		pos = geom.Vec(center.X, center.Y, clearance(r.ZDim))
	case placementCase{true, YUp}:
		pos = geom.Vec(center.X, center.Z, -center.Y+clearance(r.MaxDim))
	case placementCase{false, ZUp}:
		pos = geom.Vec(r.XCenter, r.YCenter, clearance(r.ZDim))
	case placementCase{false, YUp}:
		pos = geom.Vec(r.XCenter, r.YCenter, -center.Y+clearance(r.MaxDim))
	default:
		panic(fmt.Sprintf("ortho: unknown convention %v", conv))
	}

	return Placement{Position: pos}
}

// clearance is the camera height above a dimension: the dimension plus
// ten percent.
func clearance(d float64) float64 {
	return d + d/10
}
