package tooling

import (
	"math"
	"sync"

	"github.com/chazu/cutplan/pkg/kernel"
	"github.com/chazu/cutplan/pkg/units"
)

// Tool is a cutting tool identified by its tool number.
//
// Geometry derived from the parameters (side profile and solid) is cached
// and rebuilt only after a geometry-affecting change bumps the revision.
// All methods are safe for concurrent use.
type Tool struct {
	mu sync.Mutex

	number    int
	title     string
	autoTitle bool
	params    Params

	rev         uint64
	profile     []kernel.Point2
	profileRev  uint64
	profileErr  error
	shape       kernel.Solid
	shapeKernel kernel.Kernel
	shapeRev    uint64
}

// New creates a tool of type t from p. The title is generated from the
// parameters until SetTitle is called.
func New(number int, t Type, p Params) *Tool {
	p.Type = t
	tool := &Tool{number: number, autoTitle: true, params: p, rev: 1}
	tool.title = tool.params.meaningfulName(units.Millimetres)
	return tool
}

// Number returns the tool number.
func (t *Tool) Number() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.number
}

// Title returns the current title.
func (t *Tool) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// AutoTitle reports whether the title is still generated from the
// parameters.
func (t *Tool) AutoTitle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.autoTitle
}

// SetTitle sets a user title and stops automatic retitling. An empty title
// switches automatic titles back on.
func (t *Tool) SetTitle(title string, u units.Units) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if title == "" {
		t.autoTitle = true
		t.title = t.params.meaningfulName(u)
		return
	}
	t.title = title
	t.autoTitle = false
}

// ResetTitle regenerates the title when automatic titles are enabled and
// returns the title in effect.
func (t *Tool) ResetTitle(u units.Units) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.autoTitle {
		t.title = t.params.meaningfulName(u)
	}
	return t.title
}

// Params returns a copy of the tool's parameters.
func (t *Tool) Params() Params {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// Type returns the tool type.
func (t *Tool) Type() Type {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params.Type
}

// Gradient returns the plunge gradient.
func (t *Tool) Gradient() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params.Gradient
}

// SetParams replaces the parameters, invalidating cached geometry when any
// geometry field changed.
func (t *Tool) SetParams(p Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setParamsLocked(p)
}

func (t *Tool) setParamsLocked(p Params) {
	if !t.params.geometryEqual(p) {
		t.rev++
	}
	t.params = p
}

// SetDiameter changes the diameter, keeps a chamfering bit's flute height
// consistent with its cone and retitles.
func (t *Tool) SetDiameter(d float64, u units.Units) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.params
	p.Diameter = d
	if p.Type == TypeChamfer {
		p.CuttingEdgeHeight = coneHeight(p)
	}
	t.setParamsLocked(p)
	if t.autoTitle {
		t.title = t.params.meaningfulName(u)
	}
}

// ResetParametersToReasonableValues rewrites the type-specific geometry from
// the diameter, then retitles.
func (t *Tool) ResetParametersToReasonableValues(u units.Units) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.params
	if p.Type != TypeTurningTool {
		p.ToolLengthOffset = 5 * p.Diameter
	}

	switch p.Type {
	case TypeDrill, TypeCentreDrill:
		p.CornerRadius = 0
		p.FlatRadius = 0
		p.CuttingEdgeAngle = 59
		p.CuttingEdgeHeight = 3 * p.Diameter

	case TypeEndMill, TypeSlotCutter:
		p.CornerRadius = 0
		p.FlatRadius = p.Diameter / 2
		p.CuttingEdgeAngle = 0
		p.CuttingEdgeHeight = 3 * p.Diameter

	case TypeBallEndMill:
		p.CornerRadius = p.Diameter / 2
		p.FlatRadius = 0
		p.CuttingEdgeAngle = 0
		p.CuttingEdgeHeight = 3 * p.Diameter

	case TypeChamfer:
		p.CornerRadius = 0
		p.FlatRadius = 0
		p.CuttingEdgeAngle = 45
		p.CuttingEdgeHeight = coneHeight(p)

	case TypeTouchProbe, TypeToolLengthSwitch:
		p.CornerRadius = p.Diameter / 2
		p.FlatRadius = 0
		p.CuttingEdgeAngle = 0
		p.CuttingEdgeHeight = p.Diameter
	}
	p.Gradient = ReasonableGradient(p.Type)

	t.setParamsLocked(p)
	if t.autoTitle {
		t.title = t.params.meaningfulName(u)
	}
}

// coneHeight is the height at which a cone starting at the flat radius
// reaches the full diameter.
func coneHeight(p Params) float64 {
	if p.CuttingEdgeAngle <= 0 || p.CuttingEdgeAngle >= 90 {
		return p.CuttingEdgeHeight
	}
	return (p.Diameter/2 - p.FlatRadius) / math.Tan(degToRad(p.CuttingEdgeAngle))
}

// Release drops the cached solid and profile.
func (t *Tool) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.profile = nil
	t.profileErr = nil
	t.profileRev = 0
	t.shape = nil
	t.shapeKernel = nil
	t.shapeRev = 0
}

// Equal compares number, title and parameters.
func (t *Tool) Equal(o *Tool) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	a, b := t.snapshot(), o.snapshot()
	return a.number == b.number && a.title == b.title && a.params == b.params
}

type toolSnapshot struct {
	number int
	title  string
	params Params
}

func (t *Tool) snapshot() toolSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return toolSnapshot{number: t.number, title: t.title, params: t.params}
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180
}
