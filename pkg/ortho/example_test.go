package ortho_test

import (
	"fmt"

	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

func ExampleFit() {
	box := geom.FromMinMax(geom.Vec(0, 0, 0), geom.Vec(100, 50, 10))

	res, err := ortho.Fit(box, ortho.Whole(), 0.5, ortho.ZUp)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println("camera:", res.Placement.Position.X, res.Placement.Position.Y, res.Placement.Position.Z)
	fmt.Println("ortho scale:", res.Params.OrthoScale)
	fmt.Println("resolution:", res.Params.ResolutionX, res.Params.ResolutionY)
	fmt.Println(ortho.ImageName(res))
	// Output:
	// camera: 50 25 11
	// ortho scale: 100
	// resolution: 200 100
	// ortho_image_200_100_gsd_0.5_loc_default_z_True.png
}

func ExampleFromCorners() {
	region := ortho.FromCorners(0, 0, 20, 10)
	box := geom.BoundingBox{Extent: geom.Vec(500, 500, 5)}

	res, _ := ortho.Fit(box, region, 1, ortho.ZUp)
	p := res.Placement.Position
	fmt.Printf("camera at (%g, %g, %g), %dx%d px\n", p.X, p.Y, p.Z, res.Params.ResolutionX, res.Params.ResolutionY)
	// Output:
	// camera at (10, 5, 5.5), 20x10 px
}
