package blender

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"text/template"

	"github.com/matzehuels/nadir/pkg/backend"
)

// scriptData is everything the generated script needs. All geometry is
// computed in Go; the script only applies it.
type scriptData struct {
	Input     string
	Output    string
	ZUp       bool
	Engine    string
	Camera    backend.Camera
	Settings  backend.Settings
	ScriptTag string
}

var scriptFuncs = template.FuncMap{
	"py":      pyString,
	"num":     pyFloat,
	"radians": func(deg float64) string { return pyFloat(deg * math.Pi / 180) },
}

var scriptTemplate = template.Must(template.New("render.py").Funcs(scriptFuncs).Parse(`# nadir render job {{.ScriptTag}}
import bpy

INPUT = {{py .Input}}
OUTPUT = {{py .Output}}


def replace_with_emission(node, tree):
    emission = tree.nodes.new('ShaderNodeEmission')
    emission.location = (node.location.x, node.location.y)
    colour = node.inputs[0]
    if colour.links:
        tree.links.new(emission.inputs[0], colour.links[0].from_socket)
    emission.inputs[0].default_value = colour.default_value[:]
    out = node.outputs[0]
    if out.links:
        tree.links.new(out.links[0].to_socket, emission.outputs[0])


def diffuse_to_emission():
    for mat in bpy.data.materials:
        if not mat.use_nodes:
            continue
        doomed = [n for n in mat.node_tree.nodes if n.type in ('BSDF_DIFFUSE', 'BSDF_PRINCIPLED')]
        for node in doomed:
            replace_with_emission(node, mat.node_tree)
        for node in doomed:
            mat.node_tree.nodes.remove(node)


def import_obj():
{{- if .ZUp}}
    if hasattr(bpy.ops.wm, 'obj_import'):
        bpy.ops.wm.obj_import(filepath=INPUT, forward_axis='Y', up_axis='Z')
    else:
        bpy.ops.import_scene.obj(filepath=INPUT, axis_forward='Y', axis_up='Z')
{{- else}}
    if hasattr(bpy.ops.wm, 'obj_import'):
        bpy.ops.wm.obj_import(filepath=INPUT)
    else:
        bpy.ops.import_scene.obj(filepath=INPUT)
{{- end}}


bpy.ops.object.select_all(action='SELECT')
bpy.ops.object.delete(use_global=False)

import_obj()
for obj in bpy.context.selected_objects:
    obj.rotation_euler = (0.0, 0.0, 0.0)

bpy.ops.object.camera_add(
    enter_editmode=False,
    location=({{num .Camera.Placement.Position.X}}, {{num .Camera.Placement.Position.Y}}, {{num .Camera.Placement.Position.Z}}),
    rotation=({{radians .Camera.Placement.Rotation.X}}, {{radians .Camera.Placement.Rotation.Y}}, {{radians .Camera.Placement.Rotation.Z}}),
)
camera = bpy.context.active_object
scene = bpy.context.scene
scene.camera = camera

camera.data.type = 'ORTHO'
camera.data.clip_start = {{num .Camera.ClipStart}}
camera.data.clip_end = {{num .Camera.ClipEnd}}
camera.data.ortho_scale = {{num .Settings.Params.OrthoScale}}

scene.render.engine = '{{.Engine}}'
scene.render.resolution_x = {{.Settings.Params.ResolutionX}}
scene.render.resolution_y = {{.Settings.Params.ResolutionY}}
scene.render.resolution_percentage = 100
scene.cycles.samples = {{.Settings.Samples}}

diffuse_to_emission()

scene.render.image_settings.file_format = 'PNG'
scene.render.filepath = OUTPUT
bpy.ops.render.render(write_still=True)
`))

func renderScript(d scriptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pyString quotes s as a Python string literal. Go's escapes for quotes,
// backslashes, control and non-printable characters are all valid Python.
func pyString(s string) string {
	return strconv.Quote(s)
}

// pyFloat formats a finite f as a Python float literal.
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".e") {
		return s
	}
	return s + ".0"
}
