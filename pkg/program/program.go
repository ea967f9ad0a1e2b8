// Package program writes the intermediate program consumed by the
// downstream G-code post-processor: one statement per line, values
// converted from millimetres to the program's units.
package program

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

// Fixture selects a work coordinate system: 1 is G54 through 6 for G59.
type Fixture struct {
	Number int `json:"number"`
}

// Code returns the G-code word for the fixture, e.g. "G54".
func (f Fixture) Code() string {
	if f.Number >= 1 && f.Number <= 6 {
		return "G" + strconv.Itoa(53+f.Number)
	}
	if f.Number >= 7 && f.Number <= 9 {
		return "G59." + strconv.Itoa(f.Number-6)
	}
	return ""
}

// Program accumulates program text. Safe for concurrent use; statements
// from one Emit call are never interleaved with another's.
type Program struct {
	ID    uuid.UUID
	Title string
	Units units.Units

	tools *tooling.Registry

	mu  sync.Mutex
	buf strings.Builder
}

// New creates an empty program. reg resolves tool numbers and may be nil.
func New(title string, u units.Units, reg *tooling.Registry) *Program {
	if u <= 0 {
		u = units.Millimetres
	}
	return &Program{ID: uuid.New(), Title: title, Units: u, tools: reg}
}

// writer collects one batch of statements.
type writer struct {
	b strings.Builder
	u units.Units
}

func (w *writer) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

// assign writes name = float(value) with value converted to program units.
func (w *writer) assign(name string, mm float64) {
	w.line("%s = float(%s)", name, num(w.u.FromInternal(mm)))
}

func (p *Program) flush(w *writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf.WriteString(w.b.String())
}

func (p *Program) newWriter() *writer {
	return &writer{u: p.Units}
}

// Begin writes the program header and the unit mode.
func (p *Program) Begin() {
	w := p.newWriter()
	if p.Title != "" {
		w.line("comment(%s)", quote(p.Title))
	}
	w.line("absolute()")
	if p.Units.IsMetric() {
		w.line("metric()")
	} else {
		w.line("imperial()")
	}
	w.line("set_plane(0)")
	p.flush(w)
}

// EmitToolTable writes a tool_defn statement for every registered tool.
func (p *Program) EmitToolTable() {
	if p.tools == nil {
		return
	}
	w := p.newWriter()
	for _, t := range p.tools.Tools() {
		params := t.Params()
		radius, length := "None", "None"
		if params.Diameter > 0 {
			radius = num(p.Units.FromInternal(params.Diameter / 2))
		}
		if params.ToolLengthOffset > 0 {
			length = num(p.Units.FromInternal(params.ToolLengthOffset))
		}
		w.line("tool_defn( id=%d, name=%s, radius=%s, length=%s, gradient=%s)",
			t.Number(), quote(t.Title()), radius, length, num(params.Gradient))
	}
	p.flush(w)
}

// Emit appends the statements for op. Inactive operations produce nothing.
// The order is: comment, tool change, fixture, speeds, then the depth
// assignments clearance, rapid_down_to_height, start_depth, step_down,
// final_depth and tool_diameter when the tool resolves.
func (p *Program) Emit(op *ops.Operation, fixture *Fixture) {
	if op == nil || !op.Active {
		return
	}
	w := p.newWriter()

	if op.Comment != "" {
		w.line("comment(%s)", quote(op.Comment))
	}
	if op.ToolNumber > 0 {
		w.line("tool_change( id=%d)", op.ToolNumber)
	}
	if fixture != nil && fixture.Number > 0 {
		w.line("workplane(%d)", fixture.Number)
	}

	if s := op.Speed; s != nil {
		if s.SpindleSpeed != 0 {
			w.line("spindle(%s)", num(s.SpindleSpeed))
		}
		w.line("feedrate_hv(%s, %s)", num(p.Units.FromInternal(s.HorizontalFeedRate)), num(p.Units.FromInternal(s.VerticalFeedRate)))
		w.line("flush_nc()")
	}

	if d := op.Depth; d != nil {
		w.assign("clearance", d.ClearanceHeight)
		w.assign("rapid_down_to_height", d.RapidDownToHeight)
		w.assign("start_depth", d.StartDepth)
		w.assign("step_down", d.StepDown)
		w.assign("final_depth", d.FinalDepth)

		if p.tools != nil {
			if t, ok := p.tools.Find(op.ToolNumber); ok {
				w.line("tool_diameter = float(%s)", num(t.CuttingRadiusIn(p.Units, -1)*2))
			}
		}
	}

	p.flush(w)
}

// End writes the program trailer.
func (p *Program) End() {
	w := p.newWriter()
	w.line("program_end()")
	p.flush(w)
}

// Text returns everything written so far.
func (p *Program) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

// WriteTo implements io.WriterTo.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.Text())
	return int64(n), err
}

// num formats a float with the fewest digits that read back exactly.
func num(v float64) string {
	if v == 0 {
		v = 0 // normalise -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote renders s as a single-quoted string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return "'" + r.Replace(s) + "'"
}
