package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/geom"
	"github.com/matzehuels/nadir/pkg/ortho"
	"github.com/matzehuels/nadir/pkg/pipeline"
)

// FitRequest is the body of POST /v1/fit. Exactly one of BBox and Input
// must be set.
type FitRequest struct {
	BBox   *BoxJSON    `json:"bbox,omitempty"`
	Input  string      `json:"input,omitempty"`
	Region *RegionJSON `json:"region,omitempty"`
	GSD    float64     `json:"gsd"`
	ZUp    *bool       `json:"z_up,omitempty"` // Defaults to true
	Strict bool        `json:"strict,omitempty"`
}

// BoxJSON is a bounding box as center and full extent.
type BoxJSON struct {
	Center [3]float64 `json:"center"`
	Extent [3]float64 `json:"extent"`
}

// RegionJSON is a rectangle in world X/Y coordinates.
type RegionJSON struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// FitResponse is the body of a successful fit.
type FitResponse struct {
	Camera    CameraJSON `json:"camera"`
	Render    RenderJSON `json:"render"`
	Region    string     `json:"region"`
	ImageName string     `json:"image_name"`
	Warnings  []string   `json:"warnings,omitempty"`
	CacheHit  bool       `json:"cache_hit,omitempty"`
}

// CameraJSON is the fitted camera pose.
type CameraJSON struct {
	Position    [3]float64 `json:"position"`
	RotationDeg [3]float64 `json:"rotation_deg"`
}

// RenderJSON holds the fitted render parameters.
type RenderJSON struct {
	OrthoScale  float64 `json:"ortho_scale"`
	ResolutionX int     `json:"resolution_x"`
	ResolutionY int     `json:"resolution_y"`
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body: %v", err))
		return
	}

	opts := pipeline.Options{
		GSD:        req.GSD,
		Region:     req.region(),
		Convention: ortho.ConventionFromZUp(req.ZUp == nil || *req.ZUp),
		Strict:     req.Strict,
		Logger:     s.cfg.Logger,
	}

	var (
		res *pipeline.Result
		err error
	)
	switch {
	case req.BBox != nil && req.Input != "":
		err = errors.New(errors.ErrCodeInvalidArgument, "bbox and input are mutually exclusive")
	case req.BBox != nil:
		res, err = s.cfg.Runner.FitBounds(r.Context(), req.BBox.box(), opts)
	case req.Input != "":
		opts.Input, err = s.scenePath(req.Input)
		if err == nil {
			res, err = s.cfg.Runner.Fit(r.Context(), opts)
		}
	default:
		err = errors.New(errors.ErrCodeInvalidArgument, "one of bbox or input is required")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newFitResponse(res))
}

// scenePath resolves a request path inside the scene root.
func (s *Server) scenePath(input string) (string, error) {
	if s.cfg.SceneRoot == "" {
		return "", errors.New(errors.ErrCodeUnsupported, "scene input is disabled on this server")
	}
	if !filepath.IsLocal(input) {
		return "", errors.New(errors.ErrCodeInvalidPath, "input must be a relative path inside the scene root: %s", input)
	}
	return filepath.Join(s.cfg.SceneRoot, input), nil
}

func (r FitRequest) region() ortho.Region {
	if r.Region == nil {
		return ortho.Whole()
	}
	return ortho.Rect(r.Region.X1, r.Region.Y1, r.Region.X2, r.Region.Y2)
}

func (b BoxJSON) box() geom.BoundingBox {
	return geom.BoundingBox{
		Center: geom.Vec(b.Center[0], b.Center[1], b.Center[2]),
		Extent: geom.Vec(b.Extent[0], b.Extent[1], b.Extent[2]),
	}
}

func regionKind(r ortho.Region) string {
	if r.IsWhole() {
		return ortho.KindWhole.String()
	}
	return ortho.KindRect.String()
}

func newFitResponse(res *pipeline.Result) FitResponse {
	pos, rot := res.Fit.Placement.Position, res.Fit.Placement.Rotation
	return FitResponse{
		Camera: CameraJSON{
			Position:    [3]float64{pos.X, pos.Y, pos.Z},
			RotationDeg: [3]float64{rot.X, rot.Y, rot.Z},
		},
		Render: RenderJSON{
			OrthoScale:  res.Fit.Params.OrthoScale,
			ResolutionX: res.Fit.Params.ResolutionX,
			ResolutionY: res.Fit.Params.ResolutionY,
		},
		Region:    regionKind(res.Fit.Region),
		ImageName: res.ImageName,
		Warnings:  res.Warnings,
		CacheHit:  res.CacheInfo.BoundsHit,
	}
}
