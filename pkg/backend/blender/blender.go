// Package blender renders through an external Blender installation.
//
// The backend writes a Python script that clears the default scene,
// imports the OBJ with the axis settings of the scene's convention,
// converts diffuse shaders to emission so the image is unlit, adds the
// fitted orthographic camera and renders a still with Cycles. Blender
// runs headless under the caller's context:
//
//	blender --background --factory-startup --python-exit-code 1 --python <script>
package blender

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nadir/pkg/backend"
	"github.com/matzehuels/nadir/pkg/errors"
	"github.com/matzehuels/nadir/pkg/ortho"
)

const (
	// DefaultBinary is looked up on PATH when no binary is configured.
	DefaultBinary = "blender"

	// DefaultEngine is the render engine set in the script.
	DefaultEngine = "CYCLES"

	// MaxResolution is Blender's per-side render limit.
	MaxResolution = 65536

	// outputTailLines is how much Blender output is kept in errors.
	outputTailLines = 20
)

// Options configures a Blender Backend.
type Options struct {
	// Binary is the Blender executable. Defaults to DefaultBinary.
	Binary string

	// Engine is the render engine. Defaults to DefaultEngine.
	Engine string

	// ScriptDir receives the generated scripts. Defaults to os.TempDir().
	ScriptDir string

	// KeepScript leaves the generated script on disk after the run.
	KeepScript bool

	Logger *log.Logger
}

// Backend drives Blender to render an OBJ file.
type Backend struct {
	input    string
	conv     ortho.Convention
	opts     Options
	camera   *backend.Camera
	settings *backend.Settings
}

// New creates a Blender backend for the OBJ file at input, imported with
// the given convention.
func New(input string, conv ortho.Convention, opts Options) *Backend {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Engine == "" {
		opts.Engine = DefaultEngine
	}
	if opts.ScriptDir == "" {
		opts.ScriptDir = os.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Backend{input: input, conv: conv, opts: opts}
}

// Name returns "blender".
func (b *Backend) Name() string { return backend.KindBlender }

// SetCamera sets the camera the script adds.
func (b *Backend) SetCamera(cam backend.Camera) error {
	if err := cam.Validate(); err != nil {
		return err
	}
	b.camera = &cam
	return nil
}

// SetRenderParams sets the resolution, ortho scale and Cycles samples.
func (b *Backend) SetRenderParams(s backend.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Params.ResolutionX > MaxResolution || s.Params.ResolutionY > MaxResolution {
		return errors.New(errors.ErrCodeInvalidArgument,
			"blender renders at most %d pixels per side, got %dx%d",
			MaxResolution, s.Params.ResolutionX, s.Params.ResolutionY)
	}
	b.settings = &s
	return nil
}

// script returns the Python script that renders input to output.
func (b *Backend) script(input, output string) ([]byte, error) {
	if b.camera == nil || b.settings == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "camera and render params must be set before rendering")
	}
	return renderScript(scriptData{
		Input:     input,
		Output:    output,
		ZUp:       b.conv.ZUpFlag(),
		Engine:    b.opts.Engine,
		Camera:    *b.camera,
		Settings:  *b.settings,
		ScriptTag: filepath.Base(output),
	})
}

// RenderTo runs Blender and waits for it to write path.
func (b *Backend) RenderTo(ctx context.Context, path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return errors.New(errors.ErrCodeInvalidFormat, "blender backend writes .png, got %q", filepath.Ext(path))
	}
	out, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve output path")
	}
	input, err := filepath.Abs(b.input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve input path")
	}

	script, err := b.script(input, out)
	if err != nil {
		return err
	}

	if err := backend.PrepareOutput(out); err != nil {
		return err
	}
	// A stale image would hide a render that silently wrote nothing.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeBackend, err, "remove previous output")
	}
	scriptPath := filepath.Join(b.opts.ScriptDir, "nadir-"+uuid.NewString()+".py")
	if err := os.WriteFile(scriptPath, script, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "write blender script")
	}
	if !b.opts.KeepScript {
		defer os.Remove(scriptPath)
	}

	b.opts.Logger.Debug("starting blender", "binary", b.opts.Binary, "script", scriptPath, "output", out)

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, b.opts.Binary,
		"--background",
		"--factory-startup",
		"--python-exit-code", "1",
		"--python", scriptPath)
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if stderrors.Is(err, exec.ErrNotFound) || stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(errors.ErrCodeBackend, err, "blender executable %q not found (set --blender)", b.opts.Binary)
		}
		return errors.Wrap(errors.ErrCodeBackend, err, "blender failed:\n%s", tail(output.String(), outputTailLines))
	}

	if _, err := os.Stat(out); err != nil {
		return errors.New(errors.ErrCodeBackend, "blender exited without writing %s:\n%s", out, tail(output.String(), outputTailLines))
	}
	return nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Ensure Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)
