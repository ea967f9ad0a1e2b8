// Package job holds a working session: the tool registry, sketches and
// operations of one job, and the pipeline that turns a job script into a
// validated program.
package job

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/config"
	"github.com/chazu/cutplan/pkg/engine"
	"github.com/chazu/cutplan/pkg/kernel"
	"github.com/chazu/cutplan/pkg/logging"
	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/program"
	"github.com/chazu/cutplan/pkg/rules"
	"github.com/chazu/cutplan/pkg/sketch"
	"github.com/chazu/cutplan/pkg/tooling"
	"github.com/chazu/cutplan/pkg/toollib"
	"github.com/chazu/cutplan/pkg/units"
)

var (
	// ErrOperationNotFound is returned for an unknown operation id.
	ErrOperationNotFound = errors.New("job: operation not found")
	// ErrToolNotFound is returned for an unknown tool number.
	ErrToolNotFound = errors.New("job: tool not found")
	// ErrDuplicateOperation is returned when an operation id is taken.
	ErrDuplicateOperation = errors.New("job: duplicate operation id")
)

// Session is one job's state. All methods are safe for concurrent use.
type Session struct {
	mu sync.RWMutex

	cfg    *config.Config
	kernel kernel.Kernel
	logger *zap.Logger
	engine *engine.Engine

	units      units.Units
	tools      *tooling.Registry
	sketches   *sketch.Store
	operations []*ops.Operation
	fixtures   map[int]int
}

// NewSession creates an empty metric session. cfg supplies persisted
// defaults; k builds tool solids and may be nil when no geometry is needed.
func NewSession(cfg *config.Config, k kernel.Kernel, logger *zap.Logger) *Session {
	if cfg == nil {
		cfg = config.NewMemory()
	}
	logger = logging.OrNop(logger)
	return &Session{
		cfg:      cfg,
		kernel:   k,
		logger:   logger,
		engine:   engine.NewEngine(logger.Named("engine")),
		units:    units.Millimetres,
		tools:    tooling.NewRegistry(logger.Named("tools")),
		sketches: sketch.NewStore(),
		fixtures: make(map[int]int),
	}
}

// Reset drops every tool, sketch and operation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = units.Millimetres
	s.tools = tooling.NewRegistry(s.logger.Named("tools"))
	s.sketches = sketch.NewStore()
	s.operations = nil
	s.fixtures = make(map[int]int)
}

// Config returns the defaults store.
func (s *Session) Config() *config.Config { return s.cfg }

// Units returns the program units.
func (s *Session) Units() units.Units {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units
}

// SetUnits changes the program units.
func (s *Session) SetUnits(u units.Units) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = u
}

// Tools returns the tool registry.
func (s *Session) Tools() *tooling.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tools
}

// Sketches returns the sketch store.
func (s *Session) Sketches() *sketch.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sketches
}

// Operations returns copies of the operations in program order. Changes
// to the copies do not reach the session.
func (s *Session) Operations() []*ops.Operation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*ops.Operation, len(s.operations))
	for i, op := range s.operations {
		list[i] = op.Clone()
	}
	return list
}

// Operation returns a copy of the operation with the given id.
func (s *Session) Operation(id int) (*ops.Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.findLocked(id)
	if !ok {
		return nil, false
	}
	return op.Clone(), true
}

func (s *Session) findLocked(id int) (*ops.Operation, bool) {
	for _, op := range s.operations {
		if op.ID == id {
			return op, true
		}
	}
	return nil, false
}

// Fixture returns the work offset an operation runs on, 0 for none.
func (s *Session) Fixture(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fixtures[id]
}

// ToolDefaults are the persisted parameters new tools start from.
func (s *Session) ToolDefaults() tooling.Params {
	return tooling.DefaultParams(s.cfg)
}

// AddTool builds a tool from spec, with lengths in u, and registers it. A
// zero number takes the next free one.
func (s *Session) AddTool(spec toollib.ToolSpec, u units.Units) (*tooling.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.Number == 0 {
		spec.Number = s.tools.NextFreeNumber()
	}
	tool, err := spec.Build(s.ToolDefaults(), u)
	if err != nil {
		return nil, err
	}
	if err := s.tools.Add(tool); err != nil {
		return nil, err
	}
	return tool, nil
}

// RemoveTool unregisters a tool. Operations that refer to it keep the
// number and are reported as having no tool.
func (s *Session) RemoveTool(number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tools.Remove(number) {
		return fmt.Errorf("%w: %d", ErrToolNotFound, number)
	}
	s.logger.Debug("tool removed", zap.Int("number", number))
	return nil
}

// CalibrateProbe averages the probed points read from r into a touch
// probe's offsets. Returns how many points were used.
func (s *Session) CalibrateProbe(number int, r io.Reader) (int, error) {
	t, ok := s.Tools().Find(number)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrToolNotFound, number)
	}
	n, err := t.ImportProbeCalibration(r)
	if err != nil {
		return 0, err
	}
	p := t.Params()
	s.logger.Info("probe calibrated",
		zap.Int("number", number),
		zap.Int("points", n),
		zap.Float64("offset_x", p.ProbeOffsetX),
		zap.Float64("offset_y", p.ProbeOffsetY))
	return n, nil
}

// LoadLibrary registers a library's tools, returning a diagnostic for each
// tool that was skipped.
func (s *Session) LoadLibrary(lib *toollib.Library) []string {
	diags := lib.Apply(s.Tools(), s.ToolDefaults())
	for _, d := range diags {
		s.logger.Warn("tool library entry skipped", zap.String("reason", d))
	}
	return diags
}

// Apply loads a job into the session: its units, tools, sketches and
// operations, in that order. Operations derive their parameters from the
// tools and sketches already present, then take the job's explicit
// overrides. Entries that cannot be added are skipped and reported.
func (s *Session) Apply(j *engine.Job) []string {
	s.SetUnits(j.Units)

	var diags []string
	defaults := s.ToolDefaults()
	reg := s.Tools()
	for _, decl := range j.Tools {
		tool, err := decl.Spec.Build(defaults, decl.Units)
		if err == nil {
			err = reg.Add(tool)
		}
		if err != nil {
			diags = append(diags, fmt.Sprintf("tool %d: %v", decl.Spec.Number, err))
		}
	}

	store := s.Sketches()
	for _, sk := range j.Sketches {
		store.Put(sk.ID, sk.Box)
	}

	for _, decl := range j.Operations {
		if _, err := s.AddOperation(decl); err != nil {
			diags = append(diags, fmt.Sprintf("operation %d: %v", decl.ID, err))
		}
	}

	for _, d := range diags {
		s.logger.Warn("job entry skipped", zap.String("reason", d))
	}
	return diags
}

// AddOperation derives a new operation and appends it to the program. A
// zero id takes the next free one.
func (s *Session) AddOperation(decl engine.OperationDecl) (*ops.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := decl.ID
	if id <= 0 {
		id = s.nextIDLocked()
	} else if _, taken := s.findLocked(id); taken {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateOperation, id)
	}

	op := ops.New(decl.Tool, ops.Params{
		ID:       id,
		Kind:     decl.Kind,
		Title:    decl.Title,
		Comment:  decl.Comment,
		Sketches: decl.Sketches,
	}, ops.Env{Config: s.cfg, Sketches: s.sketches, Tools: s.tools})
	op.Active = decl.Active
	decl.Overrides.ApplySpeed(op.Speed)
	decl.Overrides.ApplyDepth(op.Depth)

	s.operations = append(s.operations, op)
	if decl.Fixture > 0 {
		s.fixtures[id] = decl.Fixture
	}

	s.logger.Debug("operation added",
		zap.Int("id", op.ID),
		zap.Stringer("kind", op.Kind),
		zap.Int("tool", op.ToolNumber))
	return op.Clone(), nil
}

func (s *Session) nextIDLocked() int {
	next := 1
	for _, op := range s.operations {
		if op.ID >= next {
			next = op.ID + 1
		}
	}
	return next
}

// AddOperationValue appends an already-built operation, as read from a
// saved document.
func (s *Session) AddOperationValue(op *ops.Operation, fixture int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.findLocked(op.ID); taken {
		return fmt.Errorf("%w: %d", ErrDuplicateOperation, op.ID)
	}
	s.operations = append(s.operations, op.Clone())
	if fixture > 0 {
		s.fixtures[op.ID] = fixture
	}
	return nil
}

// Validate runs the design rules over every operation. With applyFixes the
// repairable problems are corrected in place.
func (s *Session) Validate(applyFixes bool) rules.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	report := rules.ValidateAll(s.operations, s.tools, applyFixes)
	if n := report.Warnings(); n > 0 {
		s.logger.Info("design rule warnings", zap.Int("count", n), zap.Bool("fixes", applyFixes))
	}
	return report
}

// ValidateOperation runs the design rules over one operation.
func (s *Session) ValidateOperation(id int, applyFixes bool) ([]rules.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.findLocked(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrOperationNotFound, id)
	}
	return rules.Check(op, s.tools, applyFixes), nil
}

// Program emits the session as a program script: header, tool table, each
// active operation in order, footer.
func (s *Session) Program(title string) *program.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := program.New(title, s.units, s.tools)
	p.Begin()
	p.EmitToolTable()
	for _, op := range s.operations {
		var fixture *program.Fixture
		if n := s.fixtures[op.ID]; n > 0 {
			fixture = &program.Fixture{Number: n}
		}
		p.Emit(op, fixture)
	}
	p.End()
	return p
}

// ToolProfile returns a tool's side profile.
func (s *Session) ToolProfile(number int) ([]kernel.Point2, error) {
	t, ok := s.Tools().Find(number)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrToolNotFound, number)
	}
	return t.SideProfile()
}

// ToolMesh tessellates a tool's solid with the session kernel.
func (s *Session) ToolMesh(number int) (*kernel.Mesh, error) {
	t, ok := s.Tools().Find(number)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrToolNotFound, number)
	}
	if s.kernel == nil {
		return nil, fmt.Errorf("%w: no geometry kernel", tooling.ErrGeometryUnavailable)
	}
	return t.Mesh(s.kernel)
}
