package pipeline

import (
	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/backend/blender"
	"github.com/matzehuels/nadir/pkg/backend/manifest"
	"github.com/matzehuels/nadir/pkg/backend/raster"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/scene"
)

// NewBackend creates the backend named by opts.Backend. mesh is required
// by the raster backend and ignored by the others, which work from the
// input file.
func NewBackend(opts Options, mesh *scene.Mesh) (backend.Backend, error) {
	switch opts.Backend {
	case backend.KindRaster:
		if mesh == nil {
			return nil, errors.New(errors.ErrCodeInternal, "raster backend needs a loaded scene")
		}
		return raster.New(mesh, raster.Options{
			MaxPixels: opts.MaxPixels,
			Logger:    opts.Logger,
		}), nil
	case backend.KindBlender:
		return blender.New(opts.Input, opts.Convention, blender.Options{
			Binary:     opts.BlenderPath,
			KeepScript: opts.KeepScript,
			Logger:     opts.Logger,
		}), nil
	case backend.KindManifest:
		return manifest.New(opts.Input, opts.Convention), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidBackend, "unknown backend %q", opts.Backend)
}

// needsMesh reports whether the backend renders from an in-memory scene.
func needsMesh(kind string) bool {
	return kind == backend.KindRaster
}
