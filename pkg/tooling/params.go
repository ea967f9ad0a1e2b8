package tooling

import (
	"github.com/chazu/cutplan/pkg/config"
)

// ConfigScope prefixes every persisted tool default.
const ConfigScope = "CuttingToolParam_"

// Params holds the physical description of a tool. All lengths are
// millimetres and all angles degrees.
//
// For a ball end mill CornerRadius is Diameter/2 and FlatRadius 0; for an
// end mill CornerRadius is 0 and FlatRadius Diameter/2; a chamfering bit has
// both 0 and a CuttingEdgeAngle measured from the tool's centre line.
type Params struct {
	Type     Type     `json:"type"`
	Material Material `json:"material"`

	Diameter         float64 `json:"diameter"`
	ToolLengthOffset float64 `json:"tool_length_offset"`

	CornerRadius      float64 `json:"corner_radius"`
	FlatRadius        float64 `json:"flat_radius"`
	CuttingEdgeAngle  float64 `json:"cutting_edge_angle"`
	CuttingEdgeHeight float64 `json:"cutting_edge_height"` // flute length from the tip

	// Gradient is the plunge ramp used when the tool cannot drill
	// straight down. Negative values descend.
	Gradient float64 `json:"gradient"`
	// MaxAdvancePerRevolution bounds the chip load.
	MaxAdvancePerRevolution float64 `json:"max_advance_per_revolution"`

	// Turning tools only.
	XOffset     float64 `json:"x_offset"`
	FrontAngle  float64 `json:"front_angle"`
	ToolAngle   float64 `json:"tool_angle"`
	BackAngle   float64 `json:"back_angle"`
	Orientation int     `json:"orientation"`

	// Touch probes only. Calibrated offset between spindle centre and
	// probe tip.
	ProbeOffsetX float64 `json:"probe_offset_x"`
	ProbeOffsetY float64 `json:"probe_offset_y"`
}

// DefaultParams loads the process-wide defaults. Keys that were never
// written fall back to built-in values.
func DefaultParams(cfg *config.Config) Params {
	c := cfg.Scoped(ConfigScope)

	var p Params
	p.Material = Material(c.Int("m_material", int(MaterialHSS)))
	p.Diameter = c.Float("m_diameter", 12.7)
	p.ToolLengthOffset = c.Float("m_tool_length_offset", 10+2*p.Diameter)
	p.XOffset = c.Float("m_x_offset", 0)
	p.FrontAngle = c.Float("m_front_angle", 95)
	p.ToolAngle = c.Float("m_tool_angle", 60)
	p.BackAngle = c.Float("m_back_angle", 25)
	p.Orientation = c.Int("m_orientation", 6)
	p.CornerRadius = c.Float("m_corner_radius", 0)
	p.FlatRadius = c.Float("m_flat_radius", 0)
	p.CuttingEdgeAngle = c.Float("m_cutting_edge_angle", 59)
	p.CuttingEdgeHeight = c.Float("m_cutting_edge_height", 4*p.Diameter)
	p.Type = Type(c.Int("m_type", int(TypeDrill)))
	p.MaxAdvancePerRevolution = c.Float("m_max_advance_per_revolution", 0.12)
	p.ProbeOffsetX = c.Float("m_probe_offset_x", 0)
	p.ProbeOffsetY = c.Float("m_probe_offset_y", 0)
	p.Gradient = c.Float("m_gradient", ReasonableGradient(p.Type))

	if !p.Type.valid() {
		p.Type = TypeDrill
	}
	if !p.Material.valid() {
		p.Material = MaterialHSS
	}
	return p
}

// WriteDefaults persists p as the defaults for tools created later.
func (p Params) WriteDefaults(cfg *config.Config) error {
	c := cfg.Scoped(ConfigScope)

	ints := []struct {
		key string
		v   int
	}{
		{"m_material", int(p.Material)},
		{"m_type", int(p.Type)},
		{"m_orientation", p.Orientation},
	}
	for _, kv := range ints {
		if err := c.SetInt(kv.key, kv.v); err != nil {
			return err
		}
	}

	floats := []struct {
		key string
		v   float64
	}{
		{"m_diameter", p.Diameter},
		{"m_tool_length_offset", p.ToolLengthOffset},
		{"m_x_offset", p.XOffset},
		{"m_front_angle", p.FrontAngle},
		{"m_tool_angle", p.ToolAngle},
		{"m_back_angle", p.BackAngle},
		{"m_corner_radius", p.CornerRadius},
		{"m_flat_radius", p.FlatRadius},
		{"m_cutting_edge_angle", p.CuttingEdgeAngle},
		{"m_cutting_edge_height", p.CuttingEdgeHeight},
		{"m_max_advance_per_revolution", p.MaxAdvancePerRevolution},
		{"m_probe_offset_x", p.ProbeOffsetX},
		{"m_probe_offset_y", p.ProbeOffsetY},
		{"m_gradient", p.Gradient},
	}
	for _, kv := range floats {
		if err := c.SetFloat(kv.key, kv.v); err != nil {
			return err
		}
	}
	return nil
}

// ReasonableGradient returns the plunge gradient to use for a tool type.
// Tools with cutting edges across their bottom can drill straight down.
func ReasonableGradient(t Type) float64 {
	switch t {
	case TypeEndMill, TypeSlotCutter, TypeBallEndMill, TypeChamfer:
		return -0.1
	default:
		return 0
	}
}

// geometryEqual reports whether two parameter sets would produce the same
// profile and solid.
func (p Params) geometryEqual(o Params) bool {
	return p.Type == o.Type &&
		p.Diameter == o.Diameter &&
		p.ToolLengthOffset == o.ToolLengthOffset &&
		p.CornerRadius == o.CornerRadius &&
		p.FlatRadius == o.FlatRadius &&
		p.CuttingEdgeAngle == o.CuttingEdgeAngle &&
		p.CuttingEdgeHeight == o.CuttingEdgeHeight
}
