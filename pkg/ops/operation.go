package ops

import (
	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/props"
	"github.com/chazu/cutplan/pkg/sketch"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/units"
)

// Env is what derivation needs from the rest of the program.
type Env struct {
	Config   *config.Config
	Sketches sketch.Source
	Tools    *tooling.Registry
}

// Params identifies a new operation.
type Params struct {
	ID       int
	Kind     Kind
	Title    string
	Comment  string
	Sketches []int
}

// Operation is one machining step. Tool and sketches are referenced by
// number and id; they may not resolve.
type Operation struct {
	ID         int          `json:"id"`
	Kind       Kind         `json:"kind"`
	Title      string       `json:"title"`
	Comment    string       `json:"comment,omitempty"`
	Active     bool         `json:"active"`
	ToolNumber int          `json:"tool_number"`
	Sketches   []int        `json:"sketches"`
	Speed      *SpeedParams `json:"speed,omitempty"`
	Depth      *DepthParams `json:"depth,omitempty"`
}

// New creates an active operation and derives its initial parameters.
// A toolNumber below 1 selects the first registered tool of the kind's
// preferred type, if any.
func New(toolNumber int, p Params, env Env) *Operation {
	cfg := env.Config
	if cfg == nil {
		cfg = config.NewMemory()
	}

	if toolNumber <= 0 && env.Tools != nil {
		if n, ok := env.Tools.FindFirstByType(p.Kind.PreferredToolType()); ok {
			toolNumber = n
		}
	}
	if toolNumber < 0 {
		toolNumber = 0
	}

	op := &Operation{
		ID:         p.ID,
		Kind:       p.Kind,
		Title:      p.Title,
		Comment:    p.Comment,
		Active:     true,
		ToolNumber: toolNumber,
		Sketches:   append([]int(nil), p.Sketches...),
	}
	if op.Title == "" {
		op.Title = p.Kind.DefaultTitle()
	}

	if p.Kind.HasSpeed() {
		op.Speed = &SpeedParams{}
		op.Speed.SetInitialValues(cfg)
	}
	if p.Kind.HasDepth() {
		op.Depth = &DepthParams{}
		op.Depth.SetInitialValues(cfg, op.Sketches, op.ToolNumber, env.Sketches, env.Tools)
	}
	return op
}

// Clone returns a copy sharing nothing with o.
func (o *Operation) Clone() *Operation {
	c := *o
	c.Sketches = append([]int(nil), o.Sketches...)
	if o.Speed != nil {
		speed := *o.Speed
		c.Speed = &speed
	}
	if o.Depth != nil {
		depth := *o.Depth
		c.Depth = &depth
	}
	return &c
}

// Properties lists the operation's editable values: the tool number, then
// each capability's parameters.
func (o *Operation) Properties(cfg *config.Config, u units.Units) []props.Property {
	list := []props.Property{{
		Name:  "tool number",
		Kind:  props.KindInt,
		Value: float64(o.ToolNumber),
		Set: func(v float64) error {
			o.ToolNumber = int(v)
			return nil
		},
	}}
	if o.Speed != nil {
		list = append(list, o.Speed.Properties(cfg, u)...)
	}
	if o.Depth != nil {
		list = append(list, o.Depth.Properties(cfg, u)...)
	}
	return list
}
