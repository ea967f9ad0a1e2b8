package ops

import (
	"encoding/xml"
	"strconv"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/props"
	"github.com/chazu/cutplan/pkg/units"
)

// Persisted default keys for SpeedParams.
const (
	KeyHorizFeed    = "SpeedOpHorizFeed"
	KeyVertFeed     = "SpeedOpVertFeed"
	KeySpindleSpeed = "SpeedOpSpindleSpeed"
)

// SpeedParams are the feeds and speeds of an operation. Feed rates are
// millimetres per minute, spindle speed is revolutions per minute.
type SpeedParams struct {
	HorizontalFeedRate float64 `json:"horizontal_feed_rate"`
	VerticalFeedRate   float64 `json:"vertical_feed_rate"`
	SpindleSpeed       float64 `json:"spindle_speed"`
}

// SetInitialValues loads the persisted defaults.
func (s *SpeedParams) SetInitialValues(cfg *config.Config) {
	s.HorizontalFeedRate = cfg.Float(KeyHorizFeed, 100)
	s.VerticalFeedRate = cfg.Float(KeyVertFeed, 100)
	s.SpindleSpeed = cfg.Float(KeySpindleSpeed, 7000)
}

// WriteDefaults persists s as the defaults for new operations.
func (s SpeedParams) WriteDefaults(cfg *config.Config) error {
	if err := cfg.SetFloat(KeyHorizFeed, s.HorizontalFeedRate); err != nil {
		return err
	}
	if err := cfg.SetFloat(KeyVertFeed, s.VerticalFeedRate); err != nil {
		return err
	}
	return cfg.SetFloat(KeySpindleSpeed, s.SpindleSpeed)
}

// Properties exposes the feeds (in u per minute) and the spindle speed.
func (s *SpeedParams) Properties(cfg *config.Config, u units.Units) []props.Property {
	set := func(field *float64, length bool) func(float64) error {
		return func(v float64) error {
			if length {
				v = u.ToInternal(v)
			}
			*field = v
			return s.WriteDefaults(cfg)
		}
	}
	return []props.Property{
		{Name: "horizontal feed rate", Kind: props.KindLength, Value: u.FromInternal(s.HorizontalFeedRate), Set: set(&s.HorizontalFeedRate, true)},
		{Name: "vertical feed rate", Kind: props.KindLength, Value: u.FromInternal(s.VerticalFeedRate), Set: set(&s.VerticalFeedRate, true)},
		{Name: "spindle speed", Kind: props.KindDouble, Value: s.SpindleSpeed, Set: set(&s.SpindleSpeed, false)},
	}
}

// MarshalXML writes <speedop hfeed vfeed spin/>.
func (s SpeedParams) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "speedop"}
	start.Attr = []xml.Attr{
		attr("hfeed", formatFloat(s.HorizontalFeedRate)),
		attr("vfeed", formatFloat(s.VerticalFeedRate)),
		attr("spin", formatFloat(s.SpindleSpeed)),
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML overlays the attributes it can parse onto s.
func (s *SpeedParams) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	readFloatAttrs(start.Attr, map[string]*float64{
		"hfeed": &s.HorizontalFeedRate,
		"vfeed": &s.VerticalFeedRate,
		"spin":  &s.SpindleSpeed,
	})
	return d.Skip()
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// readFloatAttrs parses the named attributes into their targets. Malformed
// values leave the target unchanged.
func readFloatAttrs(attrs []xml.Attr, targets map[string]*float64) {
	for _, a := range attrs {
		ptr, ok := targets[a.Name.Local]
		if !ok {
			continue
		}
		if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
			*ptr = v
		}
	}
}
