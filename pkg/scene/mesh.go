package scene

import (
	"image/color"

	"github.com/matzehuels/nadir/pkg/geom"
)

// DefaultColor is used for faces without a material or whose material has
// no diffuse colour.
var DefaultColor = color.NRGBA{R: 204, G: 204, B: 204, A: 255}

// Material is a named surface colour from an MTL library.
type Material struct {
	Name  string
	Color color.NRGBA
}

// Triangle indexes three vertices of a [Mesh] and the material it is drawn
// with. Material is -1 for faces without a usemtl statement.
type Triangle struct {
	V        [3]int
	Material int
}

// Mesh is a triangulated scene in world (Z-up) coordinates.
type Mesh struct {
	Vertices  []geom.Vector3
	Triangles []Triangle
	Materials []Material
}

// Bounds returns the axis-aligned bounding box of all vertices. The
// second result is false for a mesh without vertices.
func (m *Mesh) Bounds() (geom.BoundingBox, bool) {
	var b geom.Bounds
	for _, v := range m.Vertices {
		b.Extend(v)
	}
	return b.Box()
}

// ColorOf returns the colour a triangle is drawn with.
func (m *Mesh) ColorOf(t Triangle) color.NRGBA {
	if t.Material < 0 || t.Material >= len(m.Materials) {
		return DefaultColor
	}
	return m.Materials[t.Material].Color
}

// Stats summarizes a mesh for logging.
type Stats struct {
	Vertices  int
	Triangles int
	Materials int
}

// Stats returns the element counts of m.
func (m *Mesh) Stats() Stats {
	return Stats{
		Vertices:  len(m.Vertices),
		Triangles: len(m.Triangles),
		Materials: len(m.Materials),
	}
}
