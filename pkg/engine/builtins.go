package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/sketch"
	"github.com/chazu/cutplan/pkg/toollib"
	"github.com/chazu/cutplan/pkg/units"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites job script source into something zygomys reads:
//
//  1. :keyword becomes the string literal "__kw_keyword", so builtins can
//     tell keyword arguments from values without registering symbols.
//  2. kebab-case identifiers become snake_case, since zygomys parses a
//     hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			end := strings.IndexByte(source[i+1:], '`')
			if end < 0 {
				result = append(result, b[i:]...)
				break
			}
			result = append(result, b[i:i+end+2]...)
			i += end + 2
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters joins words; anywhere
		// else it is a minus sign.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Script values
// ---------------------------------------------------------------------------

// sexpVec3 carries a point between (vec3 ...) and the forms that take one.
type sexpVec3 struct {
	vec sketch.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword arguments
// ---------------------------------------------------------------------------

const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs is an argument list split into keyword and positional arguments.
type kwArgs struct {
	form       string
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

func parseArgs(form string, args []zygo.Sexp) kwArgs {
	result := kwArgs{form: form, kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		// A trailing keyword with no value reads as a true flag.
		var v zygo.Sexp = &zygo.SexpBool{Val: true}
		if i+1 < len(args) {
			v = args[i+1]
			i++
		}
		if _, seen := result.kw[name]; !seen {
			result.order = append(result.order, name)
		}
		result.kw[name] = v
	}
	return result
}

// only rejects keywords the form does not understand.
func (a kwArgs) only(allowed ...string) error {
	for _, name := range a.order {
		found := false
		for _, ok := range allowed {
			if name == ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: unknown keyword :%s", a.form, name)
		}
	}
	return nil
}

func (a kwArgs) float(name string) (*float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return nil, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", a.form, name, err)
	}
	return &f, nil
}

func (a kwArgs) int(name string) (int, bool, error) {
	v, ok := a.kw[name]
	if !ok {
		return 0, false, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %s: %w", a.form, name, err)
	}
	return n, true, nil
}

func (a kwArgs) str(name string) (string, error) {
	v, ok := a.kw[name]
	if !ok {
		return "", nil
	}
	s, err := toString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", a.form, name, err)
	}
	return s, nil
}

func (a kwArgs) keyword(name string) (string, error) {
	v, ok := a.kw[name]
	if !ok {
		return "", nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", a.form, name, err)
	}
	return s, nil
}

func (a kwArgs) vec3(name string) (sketch.Vec3, bool, error) {
	v, ok := a.kw[name]
	if !ok {
		return sketch.Vec3{}, false, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return sketch.Vec3{}, false, fmt.Errorf("%s: %s: %w", a.form, name, err)
	}
	return vec, true, nil
}

// ---------------------------------------------------------------------------
// Value extraction
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %s", s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok && !strings.HasPrefix(str.S, kwPrefix) {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

// toKeywordString accepts :name or "name".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %s", s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (sketch.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return sketch.Vec3{}, fmt.Errorf("expected vec3, got %s", s.SexpString(nil))
}

// sexpListToSlice accepts a list, an array or nil.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

// toolLengths maps (tool ...) keywords to length fields of a spec.
var toolLengths = map[string]func(*toollib.ToolSpec) **float64{
	"diameter":      func(s *toollib.ToolSpec) **float64 { return &s.Diameter },
	"corner-radius": func(s *toollib.ToolSpec) **float64 { return &s.CornerRadius },
	"flat-radius":   func(s *toollib.ToolSpec) **float64 { return &s.FlatRadius },
	"height":        func(s *toollib.ToolSpec) **float64 { return &s.CuttingEdgeHeight },
	"length":        func(s *toollib.ToolSpec) **float64 { return &s.ToolLengthOffset },
	"max-advance":   func(s *toollib.ToolSpec) **float64 { return &s.MaxAdvancePerRevolution },
	"x-offset":      func(s *toollib.ToolSpec) **float64 { return &s.XOffset },
	"probe-x":       func(s *toollib.ToolSpec) **float64 { return &s.ProbeOffsetX },
	"probe-y":       func(s *toollib.ToolSpec) **float64 { return &s.ProbeOffsetY },
}

// toolPlain maps (tool ...) keywords to unitless fields.
var toolPlain = map[string]func(*toollib.ToolSpec) **float64{
	"angle":       func(s *toollib.ToolSpec) **float64 { return &s.CuttingEdgeAngle },
	"gradient":    func(s *toollib.ToolSpec) **float64 { return &s.Gradient },
	"front-angle": func(s *toollib.ToolSpec) **float64 { return &s.FrontAngle },
	"tool-angle":  func(s *toollib.ToolSpec) **float64 { return &s.ToolAngle },
	"back-angle":  func(s *toollib.ToolSpec) **float64 { return &s.BackAngle },
}

// operationLengths maps (operation ...) keywords to depth and feed
// overrides given in script units.
var operationLengths = map[string]func(*Overrides) **float64{
	"clearance":   func(o *Overrides) **float64 { return &o.ClearanceHeight },
	"rapid-down":  func(o *Overrides) **float64 { return &o.RapidDownToHeight },
	"start-depth": func(o *Overrides) **float64 { return &o.StartDepth },
	"step-down":   func(o *Overrides) **float64 { return &o.StepDown },
	"final-depth": func(o *Overrides) **float64 { return &o.FinalDepth },
	"hfeed":       func(o *Overrides) **float64 { return &o.HorizontalFeed },
	"vfeed":       func(o *Overrides) **float64 { return &o.VerticalFeed },
}

// registerBuiltins installs the job script forms. Each form records into
// job as it runs, so later forms see the units and fixture set before them.
func registerBuiltins(env *zygo.Zlisp, job *Job) {
	fixture := 0
	sketchIDs := make(map[int]bool)

	// (units :inch)
	env.AddFunction("units", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("units requires exactly one argument")
		}
		s, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		u, err := units.Parse(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("units: %w", err)
		}
		job.Units = u
		return args[0], nil
	})

	// (vec3 0 0 10)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: sketch.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// (tool :number 3 :type :chamfer :diameter 10 :angle 45)
	env.AddFunction("tool", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("tool", args)
		allowed := []string{"number", "type", "material", "title", "orientation"}
		for k := range toolLengths {
			allowed = append(allowed, k)
		}
		for k := range toolPlain {
			allowed = append(allowed, k)
		}
		if err := pa.only(allowed...); err != nil {
			return zygo.SexpNull, err
		}

		var spec toollib.ToolSpec
		n, ok, err := pa.int("number")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("tool: :number is required")
		}
		spec.Number = n
		if spec.Type, err = pa.keyword("type"); err != nil {
			return zygo.SexpNull, err
		}
		if spec.Type == "" {
			return zygo.SexpNull, fmt.Errorf("tool: :type is required")
		}
		if spec.Material, err = pa.keyword("material"); err != nil {
			return zygo.SexpNull, err
		}
		if spec.Title, err = pa.str("title"); err != nil {
			return zygo.SexpNull, err
		}
		if o, ok, err := pa.int("orientation"); err != nil {
			return zygo.SexpNull, err
		} else if ok {
			spec.Orientation = &o
		}
		for k, field := range toolLengths {
			if *field(&spec), err = pa.float(k); err != nil {
				return zygo.SexpNull, err
			}
		}
		for k, field := range toolPlain {
			if *field(&spec), err = pa.float(k); err != nil {
				return zygo.SexpNull, err
			}
		}

		job.Tools = append(job.Tools, ToolDecl{Spec: spec, Units: job.Units})
		return &zygo.SexpInt{Val: int64(spec.Number)}, nil
	})

	// (sketch :id 1 :min (vec3 0 0 0) :max (vec3 50 50 10))
	env.AddFunction("sketch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("sketch", args)
		if err := pa.only("id", "min", "max"); err != nil {
			return zygo.SexpNull, err
		}
		id, ok, err := pa.int("id")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("sketch: :id is required")
		}
		if sketchIDs[id] {
			return zygo.SexpNull, fmt.Errorf("sketch: duplicate id %d", id)
		}
		lo, okMin, err := pa.vec3("min")
		if err != nil {
			return zygo.SexpNull, err
		}
		hi, okMax, err := pa.vec3("max")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !okMin || !okMax {
			return zygo.SexpNull, fmt.Errorf("sketch: :min and :max are required")
		}

		u := job.Units
		toMM := func(v sketch.Vec3) sketch.Vec3 {
			return sketch.Vec3{X: u.ToInternal(v.X), Y: u.ToInternal(v.Y), Z: u.ToInternal(v.Z)}
		}
		sketchIDs[id] = true
		job.Sketches = append(job.Sketches, SketchDecl{ID: id, Box: sketch.NewBox(toMM(lo), toMM(hi))})
		return &zygo.SexpInt{Val: int64(id)}, nil
	})

	// (fixture 2) selects the work offset for the operations after it.
	env.AddFunction("fixture", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("fixture requires exactly one argument")
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("fixture: %w", err)
		}
		if n < 0 || n > 9 {
			return zygo.SexpNull, fmt.Errorf("fixture: %d out of range 0..9", n)
		}
		fixture = n
		return args[0], nil
	})

	// (operation :kind :pocket :id 1 :tool 3 :sketches (list 1 2) :final-depth -3)
	env.AddFunction("operation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("operation", args)
		allowed := []string{"kind", "id", "tool", "sketches", "title", "comment", "active", "fixture", "spindle"}
		for k := range operationLengths {
			allowed = append(allowed, k)
		}
		if err := pa.only(allowed...); err != nil {
			return zygo.SexpNull, err
		}

		decl := OperationDecl{Active: true, Fixture: fixture}
		kind, err := pa.keyword("kind")
		if err != nil {
			return zygo.SexpNull, err
		}
		if kind == "" {
			return zygo.SexpNull, fmt.Errorf("operation: :kind is required")
		}
		if decl.Kind, err = ops.ParseKind(kind); err != nil {
			return zygo.SexpNull, fmt.Errorf("operation: %w", err)
		}
		if decl.ID, _, err = pa.int("id"); err != nil {
			return zygo.SexpNull, err
		}
		if decl.Tool, _, err = pa.int("tool"); err != nil {
			return zygo.SexpNull, err
		}
		if f, ok, err := pa.int("fixture"); err != nil {
			return zygo.SexpNull, err
		} else if ok {
			decl.Fixture = f
		}
		if decl.Title, err = pa.str("title"); err != nil {
			return zygo.SexpNull, err
		}
		if decl.Comment, err = pa.str("comment"); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["active"]; ok {
			if decl.Active, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("operation: active: %w", err)
			}
		}
		if v, ok := pa.kw["sketches"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("operation: sketches: %w", err)
			}
			for _, item := range items {
				id, err := toInt(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("operation: sketch entry: %w", err)
				}
				decl.Sketches = append(decl.Sketches, id)
			}
		}

		for k, field := range operationLengths {
			v, err := pa.float(k)
			if err != nil {
				return zygo.SexpNull, err
			}
			if v != nil {
				mm := job.Units.ToInternal(*v)
				*field(&decl.Overrides) = &mm
			}
		}
		if decl.Overrides.SpindleSpeed, err = pa.float("spindle"); err != nil {
			return zygo.SexpNull, err
		}

		job.Operations = append(job.Operations, decl)
		return &zygo.SexpInt{Val: int64(decl.ID)}, nil
	})
}
