package scene

import (
	"io"
	"os"
	"path/filepath"

	gobj "github.com/flywave/go-obj"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
)

// ReadOptions configures [Read].
type ReadOptions struct {
	// Convention is the up axis the file was authored with.
	Convention ortho.Convention

	// MaterialDir is the directory mtllib paths are resolved against.
	// Empty disables material loading; faces then use [DefaultColor].
	MaterialDir string

	// Name labels parse errors. Defaults to "obj".
	Name string
}

// Load reads the OBJ file at path. Material libraries are resolved
// relative to the file's directory.
func Load(path string, conv ortho.Convention) (*Mesh, error) {
	if err := errors.ValidateInputPath(path, ".obj"); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open scene")
	}
	defer f.Close()

	return Read(f, ReadOptions{
		Convention:  conv,
		MaterialDir: filepath.Dir(path),
		Name:        filepath.Base(path),
	})
}

// Read parses an OBJ stream into a Mesh.
func Read(r io.Reader, opts ReadOptions) (*Mesh, error) {
	if !opts.Convention.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "invalid convention %v", opts.Convention)
	}
	if opts.Name == "" {
		opts.Name = "obj"
	}

	reader := &gobj.ObjReader{}
	if err := reader.Read(r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s: parse failed", opts.Name)
	}
	if len(reader.V) == 0 {
		return nil, errors.New(errors.ErrCodeMissingGeometry, "%s: scene has no vertices", opts.Name)
	}

	mesh := &Mesh{Vertices: make([]geom.Vector3, len(reader.V))}
	for i, v := range reader.V {
		w := toWorld(float64(v[0]), float64(v[1]), float64(v[2]), opts.Convention)
		if !geom.IsFinite(w) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: vertex %d is not finite", opts.Name, i+1)
		}
		mesh.Vertices[i] = w
	}

	materials := make(map[string]int)
	for i, face := range reader.F {
		mat := -1
		if face.Material != "" {
			mat = materialIndex(mesh, materials, face.Material)
		}

		idx := make([]int, len(face.Corners))
		for j, c := range face.Corners {
			if c.VertexIndex < 0 || c.VertexIndex >= len(mesh.Vertices) {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"%s: face %d references vertex %d (%d vertices)", opts.Name, i+1, c.VertexIndex+1, len(mesh.Vertices))
			}
			idx[j] = c.VertexIndex
		}
		for j := 1; j+1 < len(idx); j++ {
			mesh.Triangles = append(mesh.Triangles, Triangle{
				V:        [3]int{idx[0], idx[j], idx[j+1]},
				Material: mat,
			})
		}
	}

	if opts.MaterialDir != "" && reader.MTL != "" {
		if err := applyLibraries(mesh, materials, opts.MaterialDir, reader.MTL); err != nil {
			return nil, err
		}
	}
	return mesh, nil
}

// toWorld maps file coordinates into the Z-up world.
func toWorld(x, y, z float64, conv ortho.Convention) geom.Vector3 {
	if conv == ortho.YUp {
		return geom.Vec(x, -z, y)
	}
	return geom.Vec(x, y, z)
}

// materialIndex returns the slot for name, creating a default-coloured
// entry on first use. Libraries applied later fill in the colour.
func materialIndex(mesh *Mesh, seen map[string]int, name string) int {
	if i, ok := seen[name]; ok {
		return i
	}
	mesh.Materials = append(mesh.Materials, Material{Name: name, Color: DefaultColor})
	i := len(mesh.Materials) - 1
	seen[name] = i
	return i
}
