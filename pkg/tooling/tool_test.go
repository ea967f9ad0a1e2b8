package tooling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/units"
)

func newTool(t *testing.T, number int, ty Type, diameter float64) *Tool {
	t.Helper()
	p := DefaultParams(config.NewMemory())
	p.Diameter = diameter
	tool := New(number, ty, p)
	tool.ResetParametersToReasonableValues(units.Millimetres)
	return tool
}

func TestParseType(t *testing.T) {
	for _, ty := range Types() {
		got, err := ParseType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}
	got, err := ParseType("Center_Drill")
	require.NoError(t, err)
	assert.Equal(t, TypeCentreDrill, got)

	_, err = ParseType("spoon")
	assert.Error(t, err)
	assert.Equal(t, "Ball End Mill", TypeBallEndMill.Description())
	assert.Equal(t, "Tool Length Switch", TypeToolLengthSwitch.Description())
}

func TestParseMaterial(t *testing.T) {
	m, err := ParseMaterial("High Speed Steel")
	require.NoError(t, err)
	assert.Equal(t, MaterialHSS, m)

	m, err = ParseMaterial("carbide")
	require.NoError(t, err)
	assert.Equal(t, MaterialCarbide, m)
	assert.Equal(t, "Carbide", m.Description())

	_, err = ParseMaterial("cheese")
	assert.Error(t, err)
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams(config.NewMemory())
	assert.Equal(t, TypeDrill, p.Type)
	assert.Equal(t, MaterialHSS, p.Material)
	assert.Equal(t, 12.7, p.Diameter)
	assert.InDelta(t, 35.4, p.ToolLengthOffset, 1e-9)
	assert.InDelta(t, 50.8, p.CuttingEdgeHeight, 1e-9)
	assert.Equal(t, 59.0, p.CuttingEdgeAngle)
	assert.Equal(t, 0.0, p.Gradient)
}

func TestWriteDefaultsRoundTrip(t *testing.T) {
	cfg := config.NewMemory()
	p := DefaultParams(cfg)
	p.Type = TypeEndMill
	p.Material = MaterialCarbide
	p.Diameter = 6
	p.FlatRadius = 3
	p.Gradient = -0.2
	p.Orientation = 3
	require.NoError(t, p.WriteDefaults(cfg))

	assert.Equal(t, p, DefaultParams(cfg))
}

func TestReasonableGradient(t *testing.T) {
	assert.Equal(t, -0.1, ReasonableGradient(TypeEndMill))
	assert.Equal(t, -0.1, ReasonableGradient(TypeBallEndMill))
	assert.Equal(t, 0.0, ReasonableGradient(TypeDrill))
	assert.Equal(t, 0.0, ReasonableGradient(TypeTouchProbe))
}

func TestResetParametersToReasonableValues(t *testing.T) {
	tests := []struct {
		ty                        Type
		corner, flat, angle, edge float64
	}{
		{TypeDrill, 0, 0, 59, 30},
		{TypeEndMill, 0, 5, 0, 30},
		{TypeSlotCutter, 0, 5, 0, 30},
		{TypeBallEndMill, 5, 0, 0, 30},
		{TypeChamfer, 0, 0, 45, 5},
		{TypeTouchProbe, 5, 0, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.ty.String(), func(t *testing.T) {
			p := newTool(t, 1, tt.ty, 10).Params()
			assert.InDelta(t, tt.corner, p.CornerRadius, 1e-9)
			assert.InDelta(t, tt.flat, p.FlatRadius, 1e-9)
			assert.InDelta(t, tt.angle, p.CuttingEdgeAngle, 1e-9)
			assert.InDelta(t, tt.edge, p.CuttingEdgeHeight, 1e-9)
			assert.InDelta(t, 50, p.ToolLengthOffset, 1e-9)
			assert.Equal(t, ReasonableGradient(tt.ty), p.Gradient)
		})
	}
}

func TestSetDiameterChamferHeight(t *testing.T) {
	tool := newTool(t, 1, TypeChamfer, 10)
	tool.SetDiameter(20, units.Millimetres)
	assert.InDelta(t, 10, tool.Params().CuttingEdgeHeight, 1e-9)

	tool = newTool(t, 2, TypeEndMill, 10)
	before := tool.Params().CuttingEdgeHeight
	tool.SetDiameter(20, units.Millimetres)
	assert.Equal(t, before, tool.Params().CuttingEdgeHeight)
	assert.Equal(t, "20 mm HSS End Mill", tool.Title())
}

func TestCuttingRadius(t *testing.T) {
	chamfer := newTool(t, 1, TypeChamfer, 10)
	assert.InDelta(t, 5, chamfer.CuttingRadius(-1), 1e-9)
	assert.InDelta(t, 2, chamfer.CuttingRadius(2), 1e-9)
	assert.InDelta(t, 5, chamfer.CuttingRadius(10), 1e-9)
	assert.InDelta(t, 0, chamfer.CuttingRadius(0), 1e-9)

	endMill := newTool(t, 2, TypeEndMill, 10)
	assert.InDelta(t, 5, endMill.CuttingRadius(0.5), 1e-9)

	drill := newTool(t, 3, TypeDrill, 25.4)
	assert.InDelta(t, 0.5, drill.CuttingRadiusIn(units.Inches, -1), 1e-9)
	assert.InDelta(t, 2*math.Tan(59*math.Pi/180), drill.CuttingRadius(2), 1e-9)
}

func TestTitles(t *testing.T) {
	tool := newTool(t, 1, TypeEndMill, 12.7)
	assert.True(t, tool.AutoTitle())
	assert.Equal(t, "12.7 mm HSS End Mill", tool.Title())
	assert.Equal(t, "1/2 inch HSS End Mill", tool.ResetTitle(units.Inches))

	tool.SetTitle("Roughing cutter", units.Millimetres)
	assert.False(t, tool.AutoTitle())
	assert.Equal(t, "Roughing cutter", tool.ResetTitle(units.Millimetres))

	tool.SetTitle("", units.Millimetres)
	assert.True(t, tool.AutoTitle())
	assert.Equal(t, "12.7 mm HSS End Mill", tool.Title())
}

func TestEqual(t *testing.T) {
	a := newTool(t, 1, TypeEndMill, 6)
	b := newTool(t, 1, TypeEndMill, 6)
	assert.True(t, a.Equal(b))

	b.SetDiameter(7, units.Millimetres)
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}
