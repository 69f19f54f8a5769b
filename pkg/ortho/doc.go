// Package ortho fits an orthographic nadir camera to a scene or to a
// rectangular area of interest (AOI) inside it.
//
// Given the scene's axis-aligned bounding box, an optional AOI rectangle,
// a ground sample distance (GSD), and the scene's up-axis convention, the
// package deterministically computes where to put the camera, how wide
// its orthographic view must be, and how many pixels the output image
// needs so that one pixel covers GSD world units.
//
// # Stages
//
// The computation is split into three pure functions that can be used
// independently or through [Fit]:
//
//  1. [Resolve]: turns a [geom.BoundingBox] and a [Region] into a
//     [Resolved] rectangle (center, integer-rounded size, max dimension)
//  2. [Place]: computes the camera [Placement] for one of the four
//     region × convention cases
//  3. [Parameterize]: converts the resolved size and GSD into
//     [RenderParams] (ortho scale and pixel resolution)
//
// # Whole-Scene Sentinel
//
// A rectangle whose four corners are exactly zero means "the whole
// scene". [FromCorners] maps such input onto [Whole] and every stage
// treats an all-zero rectangle the same way. A caller that really meant
// the point rectangle (0,0)-(0,0) cannot express it; [Region.Ambiguous]
// lets the caller warn about it or reject it.
//
// # Usage
//
//	box := geom.FromMinMax(geom.Vec(0, 0, 0), geom.Vec(100, 50, 10))
//	res, err := ortho.Fit(box, ortho.Whole(), 0.5, ortho.ZUp)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Params.ResolutionX, res.Params.ResolutionY) // 200 100
//
// All functions are safe for concurrent use; nothing is cached between
// calls.
package ortho
