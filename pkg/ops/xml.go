package ops

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/chazu/cutplan/pkg/config"
)

const operationElement = "Operation"

// MarshalXML writes
//
//	<Operation kind id title comment active tool_number>
//	  <speedop .../> <depthop .../> <sketch id/>...
//	</Operation>
func (o *Operation) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	active := "0"
	if o.Active {
		active = "1"
	}
	start.Name = xml.Name{Local: operationElement}
	start.Attr = []xml.Attr{
		attr("kind", o.Kind.String()),
		attr("id", strconv.Itoa(o.ID)),
		attr("title", o.Title),
		attr("comment", o.Comment),
		attr("active", active),
		attr("tool_number", strconv.Itoa(o.ToolNumber)),
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if o.Speed != nil {
		if err := e.Encode(o.Speed); err != nil {
			return err
		}
	}
	if o.Depth != nil {
		if err := e.Encode(o.Depth); err != nil {
			return err
		}
	}
	for _, id := range o.Sketches {
		s := xml.StartElement{Name: xml.Name{Local: "sketch"}, Attr: []xml.Attr{attr("id", strconv.Itoa(id))}}
		if err := e.EncodeToken(s); err != nil {
			return err
		}
		if err := e.EncodeToken(s.End()); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// ReadElement decodes an Operation element whose start tag was already
// consumed. Capability parameters start from the persisted defaults; a
// missing speedop or depthop element leaves them untouched. No derivation
// from sketches happens on load.
func ReadElement(d *xml.Decoder, start xml.StartElement, cfg *config.Config) (*Operation, error) {
	if cfg == nil {
		cfg = config.NewMemory()
	}

	op := &Operation{Active: true}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "kind":
			if k, err := ParseKind(a.Value); err == nil {
				op.Kind = k
			}
		case "id":
			if v, err := strconv.Atoi(a.Value); err == nil {
				op.ID = v
			}
		case "title":
			op.Title = a.Value
		case "comment":
			op.Comment = a.Value
		case "active":
			op.Active = a.Value != "0" && a.Value != "false"
		case "tool_number":
			if v, err := strconv.Atoi(a.Value); err == nil {
				op.ToolNumber = v
			}
		}
	}
	if op.Title == "" {
		op.Title = op.Kind.DefaultTitle()
	}
	if op.Kind.HasSpeed() {
		op.Speed = &SpeedParams{}
		op.Speed.SetInitialValues(cfg)
	}
	if op.Kind.HasDepth() {
		op.Depth = &DepthParams{}
		op.Depth.LoadDefaults(cfg)
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", operationElement, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch {
			case el.Name.Local == "speedop" && op.Speed != nil:
				err = d.DecodeElement(op.Speed, &el)
			case el.Name.Local == "depthop" && op.Depth != nil:
				err = d.DecodeElement(op.Depth, &el)
			case el.Name.Local == "sketch":
				for _, a := range el.Attr {
					if a.Name.Local != "id" {
						continue
					}
					if id, perr := strconv.Atoi(a.Value); perr == nil {
						op.Sketches = append(op.Sketches, id)
					}
				}
				err = d.Skip()
			default:
				err = d.Skip()
			}
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", operationElement, err)
			}
		case xml.EndElement:
			return op, nil
		}
	}
}
