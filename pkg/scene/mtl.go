package scene

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	gobj "github.com/flywave/go-obj"

	"github.com/matzehuels/nadir/pkg/errors"
)

// applyLibraries colours the materials of mesh from the libraries named
// by an mtllib statement. Libraries that do not exist are skipped, so a
// scene copied without its .mtl still renders in [DefaultColor].
func applyLibraries(mesh *Mesh, seen map[string]int, dir, mtllib string) error {
	for _, name := range strings.Fields(mtllib) {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		colors, err := readLibrary(path)
		if err != nil {
			return err
		}
		for mat, c := range colors {
			if i, ok := seen[mat]; ok {
				mesh.Materials[i].Color = c
			}
		}
	}
	return nil
}

// readLibrary returns the diffuse colour of every material in the MTL
// file at path, or nil if the file does not exist.
//
// The MTL reader brightens diffuse colours by 30% (clamped at 1); the
// colours returned are the brightened ones.
func readLibrary(path string) (map[string]color.NRGBA, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	mats, err := gobj.ReadMaterials(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: bad material library", filepath.Base(path))
	}

	colors := make(map[string]color.NRGBA, len(mats))
	for name, m := range mats {
		colors[name] = diffuse(m)
	}
	return colors, nil
}

func diffuse(m *gobj.Material) color.NRGBA {
	if len(m.Diffuse) < 3 {
		return DefaultColor
	}
	return color.NRGBA{
		R: channel(float64(m.Diffuse[0])),
		G: channel(float64(m.Diffuse[1])),
		B: channel(float64(m.Diffuse[2])),
		A: 255,
	}
}

func channel(f float64) uint8 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(math.Round(f * 255))
}
