// Package document saves and loads a session as an XML document:
//
//	<CNCDocument units="mm">
//	  <Tools><CuttingTool .../></Tools>
//	  <Sketches><Sketch id minx miny minz maxx maxy maxz/></Sketches>
//	  <Operations><Operation ...>...</Operation></Operations>
//	  <Fixtures><Fixture operation number/></Fixtures>
//	</CNCDocument>
//
// Lengths are stored in millimetres whatever the document units.
package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chazu/cutplan/pkg/job"
	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/sketch"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

const rootElement = "CNCDocument"

// ErrNotDocument is returned when the root element is not a CNCDocument.
var ErrNotDocument = errors.New("document: not a CNCDocument")

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Save writes the session.
func Save(w io.Writer, s *job.Session) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	e := xml.NewEncoder(w)
	e.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: rootElement},
		Attr: []xml.Attr{attr("units", s.Units().String())},
	}
	if err := e.EncodeToken(root); err != nil {
		return err
	}

	err := section(e, "Tools", func() error {
		for _, t := range s.Tools().Tools() {
			if err := e.Encode(t); err != nil {
				return fmt.Errorf("tool %d: %w", t.Number(), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = section(e, "Sketches", func() error {
		store := s.Sketches()
		for _, id := range store.IDs() {
			b, _ := store.Box(id)
			if err := empty(e, "Sketch",
				attr("id", strconv.Itoa(id)),
				attr("minx", formatFloat(b.Min.X)), attr("miny", formatFloat(b.Min.Y)), attr("minz", formatFloat(b.Min.Z)),
				attr("maxx", formatFloat(b.Max.X)), attr("maxy", formatFloat(b.Max.Y)), attr("maxz", formatFloat(b.Max.Z)),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	operations := s.Operations()
	err = section(e, "Operations", func() error {
		for _, op := range operations {
			if err := e.Encode(op); err != nil {
				return fmt.Errorf("operation %d: %w", op.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = section(e, "Fixtures", func() error {
		for _, op := range operations {
			n := s.Fixture(op.ID)
			if n == 0 {
				continue
			}
			if err := empty(e, "Fixture", attr("operation", strconv.Itoa(op.ID)), attr("number", strconv.Itoa(n))); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := e.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := e.Flush(); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func section(e *xml.Encoder, name string, body func() error) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := body(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return e.EncodeToken(start.End())
}

func empty(e *xml.Encoder, name string, attrs ...xml.Attr) error {
	start := xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// Load replaces the session's contents with the document read from r.
// Tools and operations that cannot be added are skipped and reported in
// the returned diagnostics; malformed XML is an error.
func Load(r io.Reader, s *job.Session) ([]string, error) {
	d := xml.NewDecoder(r)

	root, err := firstElement(d)
	if err != nil {
		return nil, err
	}
	if root.Name.Local != rootElement {
		return nil, fmt.Errorf("%w: root element <%s>", ErrNotDocument, root.Name.Local)
	}

	s.Reset()
	for _, a := range root.Attr {
		if a.Name.Local == "units" {
			if u, err := units.Parse(a.Value); err == nil {
				s.SetUnits(u)
			}
		}
	}

	var (
		diags      []string
		operations []*ops.Operation
		fixtures   = make(map[int]int)
		defaults   = s.ToolDefaults()
		depth      = 0
	)
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rootElement, err)
		}
		if _, ok := tok.(xml.EndElement); ok {
			if depth == 0 {
				break
			}
			depth--
			continue
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch el.Name.Local {
		case "Tools", "Sketches", "Operations", "Fixtures":
			depth++
		case "CuttingTool":
			t, err := tooling.ReadElement(d, el, defaults)
			if err != nil {
				return nil, err
			}
			if err := s.Tools().Add(t); err != nil {
				diags = append(diags, fmt.Sprintf("tool %d: %v", t.Number(), err))
			}
		case "Sketch":
			id, box := readSketch(el)
			s.Sketches().Put(id, box)
			err = d.Skip()
		case "Operation":
			op, err := ops.ReadElement(d, el, s.Config())
			if err != nil {
				return nil, err
			}
			operations = append(operations, op)
		case "Fixture":
			op, n := intAttr(el, "operation"), intAttr(el, "number")
			if op > 0 && n > 0 {
				fixtures[op] = n
			}
			err = d.Skip()
		default:
			err = d.Skip()
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", el.Name.Local, err)
		}
	}

	for _, op := range operations {
		if err := s.AddOperationValue(op, fixtures[op.ID]); err != nil {
			diags = append(diags, fmt.Sprintf("operation %d: %v", op.ID, err))
		}
	}
	return diags, nil
}

// LoadFile loads the document at path into s.
func LoadFile(path string, s *job.Session) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, s)
}

// SaveFile writes s to path.
func SaveFile(path string, s *job.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func firstElement(d *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := d.Token()
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: %v", ErrNotDocument, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func readSketch(el xml.StartElement) (int, sketch.Box) {
	var lo, hi sketch.Vec3
	targets := map[string]*float64{
		"minx": &lo.X, "miny": &lo.Y, "minz": &lo.Z,
		"maxx": &hi.X, "maxy": &hi.Y, "maxz": &hi.Z,
	}
	for _, a := range el.Attr {
		if p, ok := targets[a.Name.Local]; ok {
			if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
				*p = v
			}
		}
	}
	return intAttr(el, "id"), sketch.NewBox(lo, hi)
}

func intAttr(el xml.StartElement, name string) int {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			if v, err := strconv.Atoi(a.Value); err == nil {
				return v
			}
		}
	}
	return 0
}
