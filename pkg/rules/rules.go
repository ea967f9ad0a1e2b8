// Package rules checks operations against manufacturing design rules and
// optionally repairs the violations that have an unambiguous fix.
package rules

import (
	"fmt"

	"github.com/chazu/cutplan/pkg/ops"
	"github.com/chazu/cutplan/pkg/tooling"
)

// ClearanceMargin is how far above the start depth a repaired clearance
// height is placed, millimetres.
const ClearanceMargin = 5.0

// Severity separates problems from notices about applied fixes.
type Severity int

const (
	SeverityWarning Severity = iota // the operation is unsafe or unusable as is
	SeverityFix                     // a change that was applied
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityFix:
		return "fix"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rule names a design rule.
type Rule string

const (
	RuleNoTool      Rule = "no-tool"
	RuleFluteLength Rule = "flute-length"
	RuleDepthOrder  Rule = "depth-order"
	RuleClearance   Rule = "clearance"
)

// Finding is one design rule result.
type Finding struct {
	OperationID int      `json:"operation_id"`
	Rule        Rule     `json:"rule"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
	// Fixed is set on a warning whose cause was repaired.
	Fixed bool `json:"fixed"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
}

// Check evaluates every rule against op. With applyFixes false it does not
// modify op or the registry; otherwise the clearance rule raises the
// clearance height and adds a fix finding after its warning.
func Check(op *ops.Operation, reg *tooling.Registry, applyFixes bool) []Finding {
	label := "Operation"
	if op.Depth != nil {
		label = "Depth Operation"
	}
	warn := func(rule Rule, format string) Finding {
		return Finding{
			OperationID: op.ID,
			Rule:        rule,
			Severity:    SeverityWarning,
			Message:     fmt.Sprintf("WARNING: %s (id=%d)%s", label, op.ID, format),
		}
	}

	var findings []Finding

	var tool *tooling.Tool
	if reg != nil && op.ToolNumber > 0 {
		tool, _ = reg.Find(op.ToolNumber)
	}
	if tool == nil {
		findings = append(findings, warn(RuleNoTool,
			" does not have a cutting tool assigned.  It can not produce GCode without a cutting tool assignment."))
	}

	d := op.Depth
	if d == nil {
		return findings
	}

	if tool != nil && d.StartDepth-d.FinalDepth > tool.Params().CuttingEdgeHeight {
		findings = append(findings, warn(RuleFluteLength,
			" is set to cut deeper than the assigned cutting tool will allow"))
	}

	if d.StartDepth <= d.FinalDepth {
		findings = append(findings, warn(RuleDepthOrder,
			" has poor start and final depths.  Can't change this setting automatically"))
	}

	if d.StartDepth > d.ClearanceHeight {
		f := warn(RuleClearance, ".  Clearance height is below start depth")
		if applyFixes {
			d.ClearanceHeight = d.StartDepth + ClearanceMargin
			f.Fixed = true
			findings = append(findings, f, Finding{
				OperationID: op.ID,
				Rule:        RuleClearance,
				Severity:    SeverityFix,
				Message:     fmt.Sprintf("%s (id=%d).  Raising clearance height up to start depth (+5 mm)", label, op.ID),
			})
		} else {
			findings = append(findings, f)
		}
	}

	return findings
}

// Validate is Check rendered as the warning lines shown to the user, one
// newline-terminated string per finding, in rule order.
func Validate(op *ops.Operation, reg *tooling.Registry, applyFixes bool) []string {
	findings := Check(op, reg, applyFixes)
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Message+"\n")
	}
	return out
}

// Result is the outcome for one operation.
type Result struct {
	OperationID int       `json:"operation_id"`
	Title       string    `json:"title"`
	Findings    []Finding `json:"findings"`
}

// Report bundles the results for a set of operations.
type Report struct {
	Results []Result `json:"results"`
}

// ValidateAll checks every operation in order.
func ValidateAll(operations []*ops.Operation, reg *tooling.Registry, applyFixes bool) Report {
	var r Report
	for _, op := range operations {
		r.Results = append(r.Results, Result{
			OperationID: op.ID,
			Title:       op.Title,
			Findings:    Check(op, reg, applyFixes),
		})
	}
	return r
}

// Findings flattens the report.
func (r Report) Findings() []Finding {
	var all []Finding
	for _, res := range r.Results {
		all = append(all, res.Findings...)
	}
	return all
}

// Warnings counts unrepaired warnings.
func (r Report) Warnings() int {
	n := 0
	for _, f := range r.Findings() {
		if f.Severity == SeverityWarning && !f.Fixed {
			n++
		}
	}
	return n
}

// Messages returns every finding's message, newline-terminated.
func (r Report) Messages() []string {
	var out []string
	for _, f := range r.Findings() {
		out = append(out, f.Message+"\n")
	}
	return out
}
