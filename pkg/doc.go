// Package pkg provides the core libraries for nadir, which renders
// orthographic top-down images of 3D scenes.
//
// # Overview
//
// nadir places an orthographic camera straight above a scene (or a
// rectangle of it) so that every pixel of the output covers a fixed ground
// sample distance (GSD). The pkg directory is organized into these areas:
//
//  1. [geom] and [scene] - Vectors, bounding boxes and Wavefront OBJ loading
//  2. [ortho] - Camera fitting (region, placement, ortho scale, resolution)
//  3. [backend] - Renderers (in-process raster, Blender, JSON manifest)
//  4. [pipeline] - Orchestration (load → fit → render) and batches
//  5. [cache], [config], [observability], [errors] - Shared infrastructure
//  6. [server] - HTTP API for camera fitting
//
// # Architecture
//
// The typical data flow through nadir:
//
//	Scene file (.obj)
//	         ↓
//	    [scene] package (mesh + bounding box, cached by content hash)
//	         ↓
//	    [ortho] package (camera placement + render parameters)
//	         ↓
//	    [backend] package (raster, blender or manifest)
//	         ↓
//	    PNG/WebP/JSON output
//
// # Quick Start
//
// Fit a camera without rendering:
//
//	import (
//	    "github.com/matzehuels/nadir/pkg/geom"
//	    "github.com/matzehuels/nadir/pkg/ortho"
//	)
//
//	box := geom.FromMinMax(geom.Vec(0, 0, 0), geom.Vec(20, 10, 5))
//	fit, err := ortho.Fit(box, ortho.Whole(), 0.5, ortho.ZUp)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(fit.Placement.Position, fit.Params.ResolutionX, ortho.ImageName(fit))
//
// Full renders go through [pipeline.Runner], which adds scene loading,
// caching and the backends.
package pkg
