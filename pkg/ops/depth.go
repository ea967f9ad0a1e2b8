package ops

import (
	"encoding/xml"
	"math"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/props"
	"github.com/chazu/cutplan/pkg/sketch"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

// Persisted default keys for DepthParams.
const (
	KeyClearanceHeight = "DepthOpClearanceHeight"
	KeyStartDepth      = "DepthOpStartDepth"
	KeyStepDown        = "DepthOpStepDown"
	KeyFinalDepth      = "DepthOpFinalDepth"
	KeyRapidDown       = "DepthOpRapidDown"
)

const (
	// defaultCutDepth is how far below the sketches the final depth goes.
	defaultCutDepth = 1.0
	// defaultChamferWidth is the chamfer a new chamfer operation produces.
	defaultChamferWidth = 1.0
)

// DepthParams are the Z levels of an operation, millimetres. A sensible set
// has StartDepth above FinalDepth and ClearanceHeight at or above
// StartDepth; the design rules check that, nothing here enforces it.
type DepthParams struct {
	ClearanceHeight   float64 `json:"clearance_height"`
	StartDepth        float64 `json:"start_depth"`
	StepDown          float64 `json:"step_down"`
	FinalDepth        float64 `json:"final_depth"`
	RapidDownToHeight float64 `json:"rapid_down_to_height"`
}

// LoadDefaults reads the five persisted defaults.
func (d *DepthParams) LoadDefaults(cfg *config.Config) {
	d.ClearanceHeight = cfg.Float(KeyClearanceHeight, 5.0)
	d.StartDepth = cfg.Float(KeyStartDepth, 0.0)
	d.StepDown = cfg.Float(KeyStepDown, 1.0)
	d.FinalDepth = cfg.Float(KeyFinalDepth, -1.0)
	d.RapidDownToHeight = cfg.Float(KeyRapidDown, 2.0)
}

// SetInitialValues loads the defaults, then fits the depths to the
// sketches: the start depth clears the tallest sketch and the final depth
// reaches one unit below the lowest. Sketches that cannot be resolved are
// skipped. A chamfering bit instead gets a final depth that cuts a 1 mm
// wide chamfer below the start depth.
func (d *DepthParams) SetInitialValues(cfg *config.Config, sketches []int, toolNumber int, src sketch.Source, reg *tooling.Registry) {
	d.LoadDefaults(cfg)

	if src != nil {
		first := true
		for _, id := range sketches {
			box, ok := src.Box(id)
			if !ok {
				continue
			}
			if first {
				d.StartDepth = box.MaxZ()
				d.FinalDepth = d.StartDepth - defaultCutDepth
				first = false
			}
			if box.MaxZ() > d.StartDepth {
				d.StartDepth = box.MaxZ()
			}
			if lowest := box.MinZ() - defaultCutDepth; lowest < d.FinalDepth {
				d.FinalDepth = lowest
			}
		}
	}

	if toolNumber <= 0 || reg == nil {
		return
	}
	tool, ok := reg.Find(toolNumber)
	if !ok {
		return
	}
	p := tool.Params()
	if p.Type == tooling.TypeChamfer && p.CuttingEdgeAngle > 0 {
		d.FinalDepth = d.StartDepth - defaultChamferWidth*math.Tan((90-p.CuttingEdgeAngle)*math.Pi/180)
	}
}

// WriteDefaults persists d as the defaults for new operations.
func (d DepthParams) WriteDefaults(cfg *config.Config) error {
	for _, kv := range []struct {
		key string
		v   float64
	}{
		{KeyClearanceHeight, d.ClearanceHeight},
		{KeyStartDepth, d.StartDepth},
		{KeyStepDown, d.StepDown},
		{KeyFinalDepth, d.FinalDepth},
		{KeyRapidDown, d.RapidDownToHeight},
	} {
		if err := cfg.SetFloat(kv.key, kv.v); err != nil {
			return err
		}
	}
	return nil
}

// Properties exposes the five depths in u.
func (d *DepthParams) Properties(cfg *config.Config, u units.Units) []props.Property {
	length := func(name string, field *float64) props.Property {
		return props.Property{
			Name:  name,
			Kind:  props.KindLength,
			Value: u.FromInternal(*field),
			Set: func(v float64) error {
				*field = u.ToInternal(v)
				return d.WriteDefaults(cfg)
			},
		}
	}
	return []props.Property{
		length("clearance height", &d.ClearanceHeight),
		length("step down", &d.StepDown),
		length("start depth", &d.StartDepth),
		length("final depth", &d.FinalDepth),
		length("rapid down to height", &d.RapidDownToHeight),
	}
}

// MarshalXML writes <depthop clear down startdepth depth r/>.
func (d DepthParams) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "depthop"}
	start.Attr = []xml.Attr{
		attr("clear", formatFloat(d.ClearanceHeight)),
		attr("down", formatFloat(d.StepDown)),
		attr("startdepth", formatFloat(d.StartDepth)),
		attr("depth", formatFloat(d.FinalDepth)),
		attr("r", formatFloat(d.RapidDownToHeight)),
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML overlays the attributes it can parse onto d.
func (d *DepthParams) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	readFloatAttrs(start.Attr, map[string]*float64{
		"clear":      &d.ClearanceHeight,
		"down":       &d.StepDown,
		"startdepth": &d.StartDepth,
		"depth":      &d.FinalDepth,
		"r":          &d.RapidDownToHeight,
	})
	return dec.Skip()
}
