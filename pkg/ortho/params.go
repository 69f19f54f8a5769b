package ortho

import (
	"math"

	"github.com/matzehuels/nadir/pkg/errors"
)

// Render defaults handed to backends alongside the fitted parameters.
const (
	// DefaultSamples is the render sample count. Low values bound render
	// time; 8 to 16 is enough for unlit nadir imagery.
	DefaultSamples = 8

	// DefaultClipStart is the camera near clip plane in scene units.
	DefaultClipStart = 0.1

	// DefaultClipEnd is the camera far clip plane in scene units.
	DefaultClipEnd = 10000.0

	// DefaultGSD is the ground sample distance used when none is given.
	DefaultGSD = 0.5

	// MaxResolution caps either output dimension. It only guards against
	// overflow from absurdly small GSD values; backends apply their own,
	// tighter limits.
	MaxResolution = 1 << 24
)

// RenderParams are the camera and image settings derived from the region
// size and the GSD.
type RenderParams struct {
	// OrthoScale is the world-space width of the larger view axis.
	OrthoScale float64
	// ResolutionX is the output image width in pixels.
	ResolutionX int
	// ResolutionY is the output image height in pixels.
	ResolutionY int
}

// Parameterize converts a resolved region and a GSD into render
// parameters.
//
// The X resolution is the X size divided by the GSD, rounded up. The Y
// resolution is derived from the X resolution through the region's aspect
// ratio rather than from the GSD directly, so both axes round the same way.
func Parameterize(r Resolved, gsd float64) (RenderParams, error) {
	if err := errors.ValidatePositive("gsd", gsd); err != nil {
		return RenderParams{}, err
	}
	if !(r.XSize > 0) {
		return RenderParams{}, errors.New(errors.ErrCodeInvalidArgument, "region x size must be positive, got %g", r.XSize)
	}
	if !(r.YSize > 0) {
		return RenderParams{}, errors.New(errors.ErrCodeInvalidArgument, "region y size must be positive, got %g", r.YSize)
	}

	resX := math.Ceil((1 / gsd) * r.XSize)
	resY := math.Ceil(r.YSize / r.XSize * resX)
	if resX > MaxResolution || resY > MaxResolution || math.IsInf(resX, 0) || math.IsInf(resY, 0) {
		return RenderParams{}, errors.New(errors.ErrCodeInvalidArgument,
			"gsd %g yields an image of %gx%g pixels (max %d per side)", gsd, resX, resY, MaxResolution)
	}

	return RenderParams{
		OrthoScale:  math.Max(r.XSize, r.YSize),
		ResolutionX: int(resX),
		ResolutionY: int(resY),
	}, nil
}

// AspectRatio returns ResolutionY / ResolutionX.
func (p RenderParams) AspectRatio() float64 {
	if p.ResolutionX == 0 {
		return 0
	}
	return float64(p.ResolutionY) / float64(p.ResolutionX)
}

// PixelCount returns the number of pixels in the output image.
func (p RenderParams) PixelCount() int {
	return p.ResolutionX * p.ResolutionY
}
