package ortho

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RegionLabel returns the file-name suffix describing the region:
// "_loc_default" for the whole scene, otherwise
// "_loc_x1y1x2y2_<x1>_<y1>_<x2>_<y2>".
func RegionLabel(r Region) string {
	if r.IsWhole() {
		return "_loc_default"
	}
	return "_loc_x1y1x2y2_" + strings.Join([]string{
		formatFloat(r.X1), formatFloat(r.Y1), formatFloat(r.X2), formatFloat(r.Y2),
	}, "_")
}

// ImageStem returns the output image name without extension:
//
//	ortho_image_<resX>_<resY>_gsd_<gsd><region>_z_<True|False>
func ImageStem(res Result) string {
	return fmt.Sprintf("ortho_image_%d_%d_gsd_%s%s_z_%s",
		res.Params.ResolutionX, res.Params.ResolutionY,
		formatFloat(res.GSD), RegionLabel(res.Region), formatBool(res.Convention.ZUpFlag()))
}

// ImageName returns the default PNG output name for res.
func ImageName(res Result) string {
	return ImageStem(res) + ".png"
}

// formatFloat prints f the way earlier versions of the tool named their
// files: shortest round-trip digits, always with a fractional part
// ("20.0", "0.5"), exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	if abs := math.Abs(f); f != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") && !math.IsNaN(f) && !math.IsInf(f, 0) {
		s += ".0"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
