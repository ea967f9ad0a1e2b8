// Package toollib reads and writes tool libraries: YAML or JSON documents
// listing the cutting tools available on a machine.
//
//	units: inch
//	tools:
//	  - number: 3
//	    type: chamfer
//	    diameter: 0.5
//	    cutting_edge_angle: 45
//
// Documents are validated against an embedded JSON Schema before use.
package toollib

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidLibrary wraps every schema or syntax problem in a library.
var ErrInvalidLibrary = errors.New("toollib: invalid tool library")

// Format is the encoding of a library document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("tool library %s: unknown extension, want .yaml, .yml or .json", path)
}

// ToolSpec describes one tool. Unset fields keep the values derived from
// the defaults and the tool type.
type ToolSpec struct {
	Number   int    `json:"number" yaml:"number"`
	Type     string `json:"type" yaml:"type"`
	Material string `json:"material,omitempty" yaml:"material,omitempty"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`

	Diameter                *float64 `json:"diameter,omitempty" yaml:"diameter,omitempty"`
	CornerRadius            *float64 `json:"corner_radius,omitempty" yaml:"corner_radius,omitempty"`
	FlatRadius              *float64 `json:"flat_radius,omitempty" yaml:"flat_radius,omitempty"`
	CuttingEdgeAngle        *float64 `json:"cutting_edge_angle,omitempty" yaml:"cutting_edge_angle,omitempty"`
	CuttingEdgeHeight       *float64 `json:"cutting_edge_height,omitempty" yaml:"cutting_edge_height,omitempty"`
	ToolLengthOffset        *float64 `json:"tool_length_offset,omitempty" yaml:"tool_length_offset,omitempty"`
	Gradient                *float64 `json:"gradient,omitempty" yaml:"gradient,omitempty"`
	MaxAdvancePerRevolution *float64 `json:"max_advance_per_revolution,omitempty" yaml:"max_advance_per_revolution,omitempty"`
	XOffset                 *float64 `json:"x_offset,omitempty" yaml:"x_offset,omitempty"`
	FrontAngle              *float64 `json:"front_angle,omitempty" yaml:"front_angle,omitempty"`
	ToolAngle               *float64 `json:"tool_angle,omitempty" yaml:"tool_angle,omitempty"`
	BackAngle               *float64 `json:"back_angle,omitempty" yaml:"back_angle,omitempty"`
	Orientation             *int     `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	ProbeOffsetX            *float64 `json:"probe_offset_x,omitempty" yaml:"probe_offset_x,omitempty"`
	ProbeOffsetY            *float64 `json:"probe_offset_y,omitempty" yaml:"probe_offset_y,omitempty"`
}

// Library is a parsed tool library. Lengths are in Units.
type Library struct {
	Units string     `json:"units,omitempty" yaml:"units,omitempty"`
	Tools []ToolSpec `json:"tools" yaml:"tools"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("load tool library schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("toollib.json", doc); err != nil {
			schemaErr = fmt.Errorf("add tool library schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("toollib.json")
	})
	return schema, schemaErr
}

// Parse validates and decodes a library document.
func Parse(data []byte, format Format) (*Library, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	// Normalise to JSON so the schema sees one value model for both formats.
	jsonData := data
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
		}
		if jsonData, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
		}
	} else if format != FormatJSON {
		return nil, fmt.Errorf("unsupported tool library format %q", format)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}

	var lib Library
	if err := json.Unmarshal(jsonData, &lib); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLibrary, err)
	}
	return &lib, nil
}

// Load reads a library file, choosing the format from its extension.
func Load(path string) (*Library, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tool library: %w", err)
	}
	lib, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// LengthUnits returns the units the library's lengths are written in.
func (l *Library) LengthUnits() units.Units {
	u, err := units.Parse(l.Units)
	if err != nil {
		return units.Millimetres
	}
	return u
}

// Build turns a spec into a tool. The tool starts from defaults, gets the
// reasonable geometry for its type and diameter, then every field the spec
// sets explicitly.
func (s ToolSpec) Build(defaults tooling.Params, u units.Units) (*tooling.Tool, error) {
	ty, err := tooling.ParseType(s.Type)
	if err != nil {
		return nil, err
	}

	p := defaults
	if s.Diameter != nil {
		p.Diameter = u.ToInternal(*s.Diameter)
	}
	tool := tooling.New(s.Number, ty, p)
	tool.ResetParametersToReasonableValues(u)

	p = tool.Params()
	if s.Material != "" {
		m, err := tooling.ParseMaterial(s.Material)
		if err != nil {
			return nil, err
		}
		p.Material = m
	}
	setLength := func(dst *float64, v *float64) {
		if v != nil {
			*dst = u.ToInternal(*v)
		}
	}
	setPlain := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	setLength(&p.CornerRadius, s.CornerRadius)
	setLength(&p.FlatRadius, s.FlatRadius)
	setPlain(&p.CuttingEdgeAngle, s.CuttingEdgeAngle)
	setLength(&p.CuttingEdgeHeight, s.CuttingEdgeHeight)
	setLength(&p.ToolLengthOffset, s.ToolLengthOffset)
	setPlain(&p.Gradient, s.Gradient)
	setLength(&p.MaxAdvancePerRevolution, s.MaxAdvancePerRevolution)
	setLength(&p.XOffset, s.XOffset)
	setPlain(&p.FrontAngle, s.FrontAngle)
	setPlain(&p.ToolAngle, s.ToolAngle)
	setPlain(&p.BackAngle, s.BackAngle)
	if s.Orientation != nil {
		p.Orientation = *s.Orientation
	}
	setLength(&p.ProbeOffsetX, s.ProbeOffsetX)
	setLength(&p.ProbeOffsetY, s.ProbeOffsetY)
	tool.SetParams(p)

	if s.Title != "" {
		tool.SetTitle(s.Title, u)
	} else {
		tool.ResetTitle(u)
	}
	return tool, nil
}

// Apply adds every tool to reg. Tools that cannot be built or registered
// (a duplicate number, say) are skipped and described in the returned
// diagnostics.
func (l *Library) Apply(reg *tooling.Registry, defaults tooling.Params) []string {
	u := l.LengthUnits()

	var diags []string
	for _, spec := range l.Tools {
		tool, err := spec.Build(defaults, u)
		if err != nil {
			diags = append(diags, fmt.Sprintf("tool %d: %v", spec.Number, err))
			continue
		}
		if err := reg.Add(tool); err != nil {
			diags = append(diags, fmt.Sprintf("tool %d: %v", spec.Number, err))
		}
	}
	return diags
}

// FromRegistry describes every registered tool, lengths in u.
func FromRegistry(reg *tooling.Registry, u units.Units) *Library {
	lib := &Library{Units: u.String(), Tools: []ToolSpec{}}
	for _, t := range reg.Tools() {
		p := t.Params()
		length := func(v float64) *float64 {
			x := u.FromInternal(v)
			return &x
		}
		plain := func(v float64) *float64 { return &v }
		orientation := p.Orientation

		lib.Tools = append(lib.Tools, ToolSpec{
			Number:                  t.Number(),
			Type:                    p.Type.String(),
			Material:                p.Material.String(),
			Title:                   t.Title(),
			Diameter:                length(p.Diameter),
			CornerRadius:            length(p.CornerRadius),
			FlatRadius:              length(p.FlatRadius),
			CuttingEdgeAngle:        plain(p.CuttingEdgeAngle),
			CuttingEdgeHeight:       length(p.CuttingEdgeHeight),
			ToolLengthOffset:        length(p.ToolLengthOffset),
			Gradient:                plain(p.Gradient),
			MaxAdvancePerRevolution: length(p.MaxAdvancePerRevolution),
			XOffset:                 length(p.XOffset),
			FrontAngle:              plain(p.FrontAngle),
			ToolAngle:               plain(p.ToolAngle),
			BackAngle:               plain(p.BackAngle),
			Orientation:             &orientation,
			ProbeOffsetX:            length(p.ProbeOffsetX),
			ProbeOffsetY:            length(p.ProbeOffsetY),
		})
	}
	return lib
}

// Export renders the registry as a YAML tool library.
func Export(reg *tooling.Registry, u units.Units) ([]byte, error) {
	out, err := yaml.Marshal(FromRegistry(reg, u))
	if err != nil {
		return nil, fmt.Errorf("export tool library: %w", err)
	}
	return out, nil
}
