package tooling

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/chazu/cutplan/pkg/units"
)

const (
	toolElement   = "CuttingTool"
	paramsElement = "params"
)

type floatAttr struct {
	name string
	ptr  func(p *Params) *float64
}

var floatAttrs = []floatAttr{
	{"diameter", func(p *Params) *float64 { return &p.Diameter }},
	{"tool_length_offset", func(p *Params) *float64 { return &p.ToolLengthOffset }},
	{"x_offset", func(p *Params) *float64 { return &p.XOffset }},
	{"front_angle", func(p *Params) *float64 { return &p.FrontAngle }},
	{"tool_angle", func(p *Params) *float64 { return &p.ToolAngle }},
	{"back_angle", func(p *Params) *float64 { return &p.BackAngle }},
	{"corner_radius", func(p *Params) *float64 { return &p.CornerRadius }},
	{"flat_radius", func(p *Params) *float64 { return &p.FlatRadius }},
	{"cutting_edge_angle", func(p *Params) *float64 { return &p.CuttingEdgeAngle }},
	{"cutting_edge_height", func(p *Params) *float64 { return &p.CuttingEdgeHeight }},
	{"max_advance_per_revolution", func(p *Params) *float64 { return &p.MaxAdvancePerRevolution }},
	{"probe_offset_x", func(p *Params) *float64 { return &p.ProbeOffsetX }},
	{"probe_offset_y", func(p *Params) *float64 { return &p.ProbeOffsetY }},
	{"gradient", func(p *Params) *float64 { return &p.Gradient }},
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// xmlAttrs renders every parameter as an attribute.
func (p Params) xmlAttrs(autoTitle bool) []xml.Attr {
	attrs := []xml.Attr{
		attr("type", strconv.Itoa(int(p.Type))),
		attr("material", strconv.Itoa(int(p.Material))),
		attr("orientation", strconv.Itoa(p.Orientation)),
	}
	for _, fa := range floatAttrs {
		attrs = append(attrs, attr(fa.name, formatFloat(*fa.ptr(&p))))
	}
	auto := "0"
	if autoTitle {
		auto = "1"
	}
	return append(attrs, attr("automatically_generate_title", auto))
}

// readXMLAttrs applies the attributes it can parse. Anything missing or
// malformed leaves the current value in place.
func (p *Params) readXMLAttrs(attrs []xml.Attr, autoTitle *bool) {
	for _, a := range attrs {
		switch a.Name.Local {
		case "type":
			if v, err := strconv.Atoi(a.Value); err == nil && Type(v).valid() {
				p.Type = Type(v)
			}
		case "material":
			if v, err := strconv.Atoi(a.Value); err == nil && Material(v).valid() {
				p.Material = Material(v)
			}
		case "orientation":
			if v, err := strconv.Atoi(a.Value); err == nil {
				p.Orientation = v
			}
		case "automatically_generate_title":
			if v, err := strconv.Atoi(a.Value); err == nil {
				*autoTitle = v != 0
			}
		default:
			for _, fa := range floatAttrs {
				if fa.name != a.Name.Local {
					continue
				}
				if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
					*fa.ptr(p) = v
				}
				break
			}
		}
	}
}

// MarshalXML writes <CuttingTool title tool_number><params .../></CuttingTool>.
func (t *Tool) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	s := t.snapshot()
	auto := t.AutoTitle()

	start.Name = xml.Name{Local: toolElement}
	start.Attr = []xml.Attr{
		attr("title", s.title),
		attr("tool_number", strconv.Itoa(s.number)),
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	ps := xml.StartElement{Name: xml.Name{Local: paramsElement}, Attr: s.params.xmlAttrs(auto)}
	if err := e.EncodeToken(ps); err != nil {
		return err
	}
	if err := e.EncodeToken(ps.End()); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML reads a CuttingTool element on top of the tool's current
// parameters.
func (t *Tool) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.params
	auto := t.autoTitle
	title := ""
	hasTitle := false

	for _, a := range start.Attr {
		switch a.Name.Local {
		case "title":
			title, hasTitle = a.Value, true
		case "tool_number":
			if v, err := strconv.Atoi(a.Value); err == nil {
				t.number = v
			}
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("read %s: %w", toolElement, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == paramsElement {
				p.readXMLAttrs(el.Attr, &auto)
			}
			if err := d.Skip(); err != nil {
				return fmt.Errorf("read %s: %w", toolElement, err)
			}
		case xml.EndElement:
			t.setParamsLocked(p)
			t.autoTitle = auto
			if hasTitle && title != "" {
				t.title = title
			} else {
				t.autoTitle = true
				t.title = t.params.meaningfulName(units.Millimetres)
			}
			return nil
		}
	}
}

// ReadElement decodes a CuttingTool element whose start tag was already
// consumed. Fields absent from the element take their values from defaults.
func ReadElement(d *xml.Decoder, start xml.StartElement, defaults Params) (*Tool, error) {
	t := &Tool{params: defaults, autoTitle: true, rev: 1}
	if err := t.UnmarshalXML(d, start); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadXML decodes a single CuttingTool document.
func ReadXML(r io.Reader, defaults Params) (*Tool, error) {
	d := xml.NewDecoder(r)
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("read cutting tool: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != toolElement {
				return nil, fmt.Errorf("read cutting tool: unexpected element <%s>", se.Name.Local)
			}
			return ReadElement(d, se, defaults)
		}
	}
}

// WriteXML encodes t as an indented CuttingTool document.
func WriteXML(w io.Writer, t *Tool) error {
	e := xml.NewEncoder(w)
	e.Indent("", "  ")
	if err := e.Encode(t); err != nil {
		return fmt.Errorf("write cutting tool %d: %w", t.Number(), err)
	}
	return e.Flush()
}
