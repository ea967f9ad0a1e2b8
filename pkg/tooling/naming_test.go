package tooling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chazu/cutplan/pkg/units"
)

func TestFractionalRepresentation(t *testing.T) {
	tests := []struct {
		value  float64
		maxDen int
		want   string
	}{
		{0.5, 64, "1/2"},
		{0.375, 64, "3/8"},
		{1.5, 64, "1 1/2"},
		{2, 64, "2"},
		{1.0 / 64, 64, "1/64"},
		{1.0 / 64, 16, ""},
		{0.3, 64, ""},
		{0, 64, ""},
		{-0.5, 64, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FractionalRepresentation(tt.value, tt.maxDen), "value %v", tt.value)
	}
}

func TestGaugeNumberRepresentation(t *testing.T) {
	assert.Equal(t, "#7", GaugeNumberRepresentation(0.201*25.4, units.Inches))
	assert.Equal(t, "#80", GaugeNumberRepresentation(0.0135*25.4, units.Inches))
	assert.Equal(t, "Z", GaugeNumberRepresentation(0.413*25.4, units.Inches))
	assert.Equal(t, "", GaugeNumberRepresentation(0.201*25.4, units.Millimetres))
	assert.Equal(t, "", GaugeNumberRepresentation(6, units.Inches))
}

func TestGenerateMeaningfulName(t *testing.T) {
	tests := []struct {
		name     string
		ty       Type
		material Material
		diameter float64
		u        units.Units
		want     string
	}{
		{"metric end mill", TypeEndMill, MaterialCarbide, 6, units.Millimetres, "6 mm Carbide End Mill"},
		{"fractional drill", TypeDrill, MaterialHSS, 6.35, units.Inches, "1/4 inch HSS Drill Bit"},
		{"number drill", TypeDrill, MaterialHSS, 0.201 * 25.4, units.Inches, "#7 HSS Drill Bit"},
		{"decimal inches", TypeEndMill, MaterialCarbide, 6, units.Inches, "0.2362 inch Carbide End Mill"},
		{"chamfer", TypeChamfer, MaterialCarbide, 10, units.Millimetres, "90 degree Carbide Chamfering Bit"},
		{"probe", TypeTouchProbe, MaterialHSS, 2, units.Millimetres, "HSS Touch Probe"},
		{"length switch", TypeToolLengthSwitch, MaterialCarbide, 2, units.Inches, "Carbide Tool Length Switch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := newTool(t, 1, tt.ty, tt.diameter)
			p := tool.Params()
			p.Material = tt.material
			tool.SetParams(p)
			assert.Equal(t, tt.want, tool.GenerateMeaningfulName(tt.u))
		})
	}
}
