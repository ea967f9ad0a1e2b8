package program

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

func endMillRegistry(t *testing.T) *tooling.Registry {
	t.Helper()
	p := tooling.DefaultParams(config.NewMemory())
	p.Diameter = 6
	tool := tooling.New(3, tooling.TypeEndMill, p)
	tool.ResetParametersToReasonableValues(units.Millimetres)

	reg := tooling.NewRegistry(nil)
	require.NoError(t, reg.Add(tool))
	return reg
}

func pocket(tool int) *ops.Operation {
	op := ops.New(tool, ops.Params{ID: 1, Kind: ops.KindPocket}, ops.Env{Config: config.NewMemory()})
	*op.Depth = ops.DepthParams{ClearanceHeight: 10, StartDepth: 0, StepDown: 1.5, FinalDepth: -4, RapidDownToHeight: 2}
	*op.Speed = ops.SpeedParams{HorizontalFeedRate: 254, VerticalFeedRate: 127, SpindleSpeed: 12000}
	return op
}

func TestEmitOrderMetric(t *testing.T) {
	p := New("", units.Millimetres, endMillRegistry(t))
	p.Emit(pocket(3), &Fixture{Number: 1})

	want := strings.Join([]string{
		"tool_change( id=3)",
		"workplane(1)",
		"spindle(12000)",
		"feedrate_hv(254, 127)",
		"flush_nc()",
		"clearance = float(10)",
		"rapid_down_to_height = float(2)",
		"start_depth = float(0)",
		"step_down = float(1.5)",
		"final_depth = float(-4)",
		"tool_diameter = float(6)",
	}, "\n") + "\n"
	assert.Equal(t, want, p.Text())
}

func TestEmitConvertsToInches(t *testing.T) {
	p := New("", units.Inches, endMillRegistry(t))
	op := pocket(3)
	op.Depth.ClearanceHeight = 25.4
	op.Depth.FinalDepth = -12.7
	p.Emit(op, nil)

	text := p.Text()
	assert.Contains(t, text, "feedrate_hv(10, 5)\n")
	assert.Contains(t, text, "clearance = float(1)\n")
	assert.Contains(t, text, "final_depth = float(-0.5)\n")
	assert.Contains(t, text, "tool_diameter = float(0.2362204724409449)\n")
	assert.NotContains(t, text, "workplane")
}

func TestEmitWithoutResolvableTool(t *testing.T) {
	p := New("", units.Millimetres, endMillRegistry(t))
	op := pocket(9)
	op.Comment = "rough it's out"
	op.Speed.SpindleSpeed = 0
	p.Emit(op, nil)

	lines := strings.Split(strings.TrimSpace(p.Text()), "\n")
	assert.Equal(t, `comment('rough it\'s out')`, lines[0])
	assert.Equal(t, "tool_change( id=9)", lines[1])
	assert.Equal(t, "feedrate_hv(254, 127)", lines[2])
	assert.Equal(t, "final_depth = float(-4)", lines[len(lines)-1])
	assert.NotContains(t, p.Text(), "spindle(")
}

func TestEmitSkipsInactive(t *testing.T) {
	p := New("", units.Millimetres, nil)
	op := pocket(3)
	op.Active = false
	p.Emit(op, nil)
	p.Emit(nil, nil)
	assert.Empty(t, p.Text())
}

func TestBeginEndAndToolTable(t *testing.T) {
	p := New("Bracket", units.Inches, endMillRegistry(t))
	p.Begin()
	p.EmitToolTable()
	p.End()

	want := strings.Join([]string{
		"comment('Bracket')",
		"absolute()",
		"imperial()",
		"set_plane(0)",
		"tool_defn( id=3, name='6 mm HSS End Mill', radius=0.11811023622047245, length=1.1811023622047245, gradient=-0.1)",
		"program_end()",
	}, "\n") + "\n"
	assert.Equal(t, want, p.Text())

	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(want)), n)
	assert.NotEqual(t, [16]byte{}, [16]byte(p.ID))
}

func TestFixtureCode(t *testing.T) {
	assert.Equal(t, "G54", Fixture{Number: 1}.Code())
	assert.Equal(t, "G59", Fixture{Number: 6}.Code())
	assert.Equal(t, "G59.2", Fixture{Number: 8}.Code())
	assert.Equal(t, "", Fixture{Number: 0}.Code())
}
