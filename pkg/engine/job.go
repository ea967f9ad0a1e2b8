package engine

import (
	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/sketch"
	"github.com/chazu/cutplan/pkg/toollib"
	"github.com/chazu/cutplan/pkg/units"
)

// Job is everything a script declared, in declaration order. Sketch boxes
// and operation overrides are already converted to millimetres; tool specs
// keep the units they were written in.
type Job struct {
	Units      units.Units
	Tools      []ToolDecl
	Sketches   []SketchDecl
	Operations []OperationDecl
}

// NewJob returns an empty metric job.
func NewJob() *Job {
	return &Job{Units: units.Millimetres}
}

// ToolDecl is a (tool ...) form.
type ToolDecl struct {
	Spec  toollib.ToolSpec
	Units units.Units
	Line  int
}

// SketchDecl is a (sketch ...) form.
type SketchDecl struct {
	ID  int
	Box sketch.Box
}

// OperationDecl is an (operation ...) form. A zero ID asks for the next
// free one; a zero Tool asks for the first tool of the preferred type.
type OperationDecl struct {
	Kind      ops.Kind
	ID        int
	Tool      int
	Sketches  []int
	Title     string
	Comment   string
	Active    bool
	Fixture   int
	Overrides Overrides
}

// Overrides are explicit values that replace derived ones. Nil means keep
// the derived value. Lengths are millimetres.
type Overrides struct {
	ClearanceHeight   *float64
	RapidDownToHeight *float64
	StartDepth        *float64
	StepDown          *float64
	FinalDepth        *float64
	HorizontalFeed    *float64
	VerticalFeed      *float64
	SpindleSpeed      *float64
}

// ApplyDepth writes the depth overrides into d.
func (o Overrides) ApplyDepth(d *ops.DepthParams) {
	if d == nil {
		return
	}
	set(&d.ClearanceHeight, o.ClearanceHeight)
	set(&d.RapidDownToHeight, o.RapidDownToHeight)
	set(&d.StartDepth, o.StartDepth)
	set(&d.StepDown, o.StepDown)
	set(&d.FinalDepth, o.FinalDepth)
}

// ApplySpeed writes the feed and speed overrides into s.
func (o Overrides) ApplySpeed(s *ops.SpeedParams) {
	if s == nil {
		return
	}
	set(&s.HorizontalFeedRate, o.HorizontalFeed)
	set(&s.VerticalFeedRate, o.VerticalFeed)
	set(&s.SpindleSpeed, o.SpindleSpeed)
}

func set(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}
