package toollib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/logging"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

const inchLibrary = `
units: inch
tools:
  - number: 1
    type: drill
    diameter: 0.25
  - number: 2
    type: end-mill
    material: carbide
    diameter: 0.5
    cutting_edge_height: 1
  - number: 3
    type: chamfer
    title: Spot chamfer
    diameter: 0.5
`

func defaults() tooling.Params {
	return tooling.DefaultParams(config.NewMemory())
}

func TestParseYAML(t *testing.T) {
	lib, err := Parse([]byte(inchLibrary), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, units.Inches, lib.LengthUnits())
	require.Len(t, lib.Tools, 3)
	assert.Equal(t, "end-mill", lib.Tools[1].Type)
	require.NotNil(t, lib.Tools[1].CuttingEdgeHeight)
	assert.Equal(t, 1.0, *lib.Tools[1].CuttingEdgeHeight)
	assert.Nil(t, lib.Tools[0].CuttingEdgeHeight)
}

func TestParseJSON(t *testing.T) {
	doc := `{"tools":[{"number":4,"type":"ball-end-mill","diameter":6}]}`
	lib, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, units.Millimetres, lib.LengthUnits())
	require.Len(t, lib.Tools, 1)
	assert.Equal(t, 4, lib.Tools[0].Number)
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		format Format
	}{
		{"missing type", "tools:\n  - number: 1\n", FormatYAML},
		{"zero number", "tools:\n  - number: 0\n    type: drill\n", FormatYAML},
		{"unknown type", "tools:\n  - number: 1\n    type: router\n", FormatYAML},
		{"unknown field", "tools:\n  - number: 1\n    type: drill\n    colour: red\n", FormatYAML},
		{"negative diameter", `{"tools":[{"number":1,"type":"drill","diameter":-3}]}`, FormatJSON},
		{"bad units", "units: furlong\ntools: []\n", FormatYAML},
		{"no tools", "units: mm\n", FormatYAML},
		{"yaml syntax", "tools: [\n", FormatYAML},
		{"json syntax", `{"tools":`, FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.format)
			assert.ErrorIs(t, err, ErrInvalidLibrary)
		})
	}
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Parse([]byte("tools: []"), Format("toml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	lib, err := Parse([]byte(inchLibrary), FormatYAML)
	require.NoError(t, err)

	reg := tooling.NewRegistry(logging.Nop())
	diags := lib.Apply(reg, defaults())
	assert.Empty(t, diags)
	require.Equal(t, 3, reg.Len())

	drill, ok := reg.Find(1)
	require.True(t, ok)
	assert.InDelta(t, 6.35, drill.Params().Diameter, 1e-9)
	assert.Equal(t, "1/4 inch HSS Drill Bit", drill.Title())
	assert.True(t, drill.AutoTitle())

	mill, ok := reg.Find(2)
	require.True(t, ok)
	p := mill.Params()
	assert.Equal(t, tooling.MaterialCarbide, p.Material)
	assert.InDelta(t, 25.4, p.CuttingEdgeHeight, 1e-9)
	assert.InDelta(t, 6.35, p.FlatRadius, 1e-9)

	chamfer, ok := reg.Find(3)
	require.True(t, ok)
	assert.Equal(t, "Spot chamfer", chamfer.Title())
	assert.False(t, chamfer.AutoTitle())
	assert.Equal(t, 45.0, chamfer.Params().CuttingEdgeAngle)
}

func TestApplyReportsDuplicates(t *testing.T) {
	doc := "tools:\n  - number: 1\n    type: drill\n  - number: 1\n    type: end-mill\n"
	lib, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)

	reg := tooling.NewRegistry(logging.Nop())
	diags := lib.Apply(reg, defaults())
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0], "tool 1")
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, tooling.TypeDrill, reg.CutterType(1))
}

func TestExportRoundTrip(t *testing.T) {
	lib, err := Parse([]byte(inchLibrary), FormatYAML)
	require.NoError(t, err)
	reg := tooling.NewRegistry(logging.Nop())
	require.Empty(t, lib.Apply(reg, defaults()))

	out, err := Export(reg, units.Millimetres)
	require.NoError(t, err)

	again, err := Parse(out, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "mm", again.Units)
	require.Len(t, again.Tools, 3)

	reg2 := tooling.NewRegistry(logging.Nop())
	require.Empty(t, again.Apply(reg2, defaults()))
	for _, n := range []int{1, 2, 3} {
		a, _ := reg.Find(n)
		b, ok := reg2.Find(n)
		require.True(t, ok)
		assert.InDelta(t, a.Params().Diameter, b.Params().Diameter, 1e-9)
		assert.InDelta(t, a.Params().CuttingEdgeHeight, b.Params().CuttingEdgeHeight, 1e-9)
		assert.Equal(t, a.Params().Material, b.Params().Material)
		assert.Equal(t, a.Title(), b.Title())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tools.yml")
	require.NoError(t, os.WriteFile(path, []byte(inchLibrary), 0o644))

	lib, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, lib.Tools, 3)

	_, err = Load(filepath.Join(dir, "tools.txt"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
