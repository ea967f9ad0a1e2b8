package tooling

import (
	"fmt"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/props"
	"github.com/chazu/cutplan/pkg/units"
)

// Properties lists the editable fields that are meaningful for the tool's
// type. Lengths are presented in u. Every setter persists the edited
// parameters as the defaults for new tools.
func (t *Tool) Properties(cfg *config.Config, u units.Units) []props.Property {
	p := t.Params()

	persist := func() error {
		return t.Params().WriteDefaults(cfg)
	}
	edit := func(apply func(p *Params)) func(float64) error {
		return func(float64) error {
			p := t.Params()
			apply(&p)
			t.SetParams(p)
			t.ResetTitle(u)
			return persist()
		}
	}
	length := func(name string, v float64, set func(p *Params, mm float64)) props.Property {
		prop := props.Property{Name: name, Kind: props.KindLength, Value: u.FromInternal(v)}
		prop.Set = func(x float64) error {
			return edit(func(p *Params) { set(p, u.ToInternal(x)) })(x)
		}
		return prop
	}
	double := func(name string, v float64, set func(p *Params, x float64)) props.Property {
		prop := props.Property{Name: name, Kind: props.KindDouble, Value: v}
		prop.Set = func(x float64) error {
			return edit(func(p *Params) { set(p, x) })(x)
		}
		return prop
	}

	typeChoices := make([]string, 0, len(Types()))
	for _, ty := range Types() {
		typeChoices = append(typeChoices, ty.Description())
	}
	materialChoices := make([]string, 0, len(Materials()))
	for _, m := range Materials() {
		materialChoices = append(materialChoices, m.Description())
	}

	list := []props.Property{
		{
			Name: "type", Kind: props.KindChoice, Value: float64(p.Type), Choices: typeChoices,
			Set: func(v float64) error {
				ty := Type(int(v))
				if ty < TypeDrill || ty > TypeToolLengthSwitch {
					return fmt.Errorf("tool type index %v out of range", v)
				}
				p := t.Params()
				p.Type = ty
				t.SetParams(p)
				t.ResetParametersToReasonableValues(u)
				return persist()
			},
		},
		{
			Name: "material", Kind: props.KindChoice, Value: float64(p.Material), Choices: materialChoices,
			Set: func(v float64) error {
				m := Material(int(v))
				if m != MaterialHSS && m != MaterialCarbide {
					return fmt.Errorf("tool material index %v out of range", v)
				}
				return edit(func(p *Params) { p.Material = m })(v)
			},
		},
		{
			Name: "diameter", Kind: props.KindLength, Value: u.FromInternal(p.Diameter),
			Set: func(v float64) error {
				t.SetDiameter(u.ToInternal(v), u)
				return persist()
			},
		},
		length("tool length offset", p.ToolLengthOffset, func(p *Params, v float64) { p.ToolLengthOffset = v }),
	}

	switch p.Type {
	case TypeTurningTool:
		list = append(list,
			length("x offset", p.XOffset, func(p *Params, v float64) { p.XOffset = v }),
			double("front angle", p.FrontAngle, func(p *Params, v float64) { p.FrontAngle = v }),
			double("tool angle", p.ToolAngle, func(p *Params, v float64) { p.ToolAngle = v }),
			double("back angle", p.BackAngle, func(p *Params, v float64) { p.BackAngle = v }),
			props.Property{
				Name: "orientation", Kind: props.KindInt, Value: float64(p.Orientation),
				Set: func(v float64) error {
					o := int(v)
					if o < 1 || o > 9 {
						return fmt.Errorf("orientation %d out of range 1..9", o)
					}
					return edit(func(p *Params) { p.Orientation = o })(v)
				},
			},
		)
	case TypeTouchProbe:
		list = append(list,
			length("probe offset x", p.ProbeOffsetX, func(p *Params, v float64) { p.ProbeOffsetX = v }),
			length("probe offset y", p.ProbeOffsetY, func(p *Params, v float64) { p.ProbeOffsetY = v }),
		)
	default:
		list = append(list,
			length("corner radius", p.CornerRadius, func(p *Params, v float64) { p.CornerRadius = v }),
			length("flat radius", p.FlatRadius, func(p *Params, v float64) { p.FlatRadius = v }),
			double("cutting edge angle", p.CuttingEdgeAngle, func(p *Params, v float64) { p.CuttingEdgeAngle = v }),
			length("cutting edge height", p.CuttingEdgeHeight, func(p *Params, v float64) { p.CuttingEdgeHeight = v }),
			length("max advance per revolution", p.MaxAdvancePerRevolution, func(p *Params, v float64) { p.MaxAdvancePerRevolution = v }),
			double("gradient", p.Gradient, func(p *Params, v float64) { p.Gradient = v }),
		)
	}
	return list
}
