// Package scene loads the 3D scenes that nadir photographs.
//
// Scenes are Wavefront OBJ files, parsed with github.com/flywave/go-obj.
// Of what that reader accepts, nadir uses:
//
//   - v: vertex positions, read at float32 precision
//   - f: polygonal faces with 1-based indices, fan-triangulated
//   - mtllib / usemtl: material libraries and per-face material selection
//
// Normals, texture coordinates, groups and line elements are parsed and
// ignored. Statements the reader does not know, negative face indices and
// backslash continuations are rejected with INVALID_INPUT.
//
// Material libraries contribute only their diffuse colour (Kd). Renderers
// draw that colour unlit, which is what a top-down orthophoto of a
// textured-but-unlit scene looks like.
//
// # Up Axis
//
// OBJ files carry no up axis. A file authored Y-up is rotated into the
// Z-up world on load, mapping (x, y, z) to (x, -z, y); a Z-up file is
// kept as written. After loading, every [Mesh] is Z-up.
//
//	mesh, err := scene.Load("city/tiles.obj", ortho.ZUp)
//	if err != nil {
//	    return err
//	}
//	box, ok := mesh.Bounds()
package scene
