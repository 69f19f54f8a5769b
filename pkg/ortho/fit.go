package ortho

import (
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
)

// Result is the complete camera fit for one AOI.
type Result struct {
	Region     Region
	GSD        float64
	Convention Convention
	Resolved   Resolved
	Placement  Placement
	Params     RenderParams
}

// Fit validates its inputs and runs [Resolve], [Place] and
// [Parameterize] in order. On invalid input it returns an *errors.Error
// with code INVALID_ARGUMENT or MISSING_GEOMETRY and no partial result.
//
// An ambiguous all-zero rectangle is fitted as the whole scene; callers
// that want to reject it should check [Region.Ambiguous] first.
func Fit(bbox geom.BoundingBox, region Region, gsd float64, conv Convention) (Result, error) {
	if err := errors.ValidatePositive("gsd", gsd); err != nil {
		return Result{}, err
	}
	if !conv.Valid() {
		return Result{}, errors.New(errors.ErrCodeInvalidArgument, "invalid convention %v", conv)
	}

	resolved, err := Resolve(bbox, region)
	if err != nil {
		return Result{}, err
	}
	params, err := Parameterize(resolved, gsd)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Region:     region,
		GSD:        gsd,
		Convention: conv,
		Resolved:   resolved,
		Placement:  Place(bbox.Center, resolved, conv, region.IsWhole()),
		Params:     params,
	}, nil
}
