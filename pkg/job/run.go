package job

import (
	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/engine"
	"github.com/chazu/cutplan/pkg/rules"
	"github.com/chazu/cutplan/pkg/toollib"
)

// Options control a Run.
type Options struct {
	// Title heads the program. Empty omits the title comment.
	Title string
	// ApplyFixes lets the design rules repair what they can.
	ApplyFixes bool
	// Library is registered before the script's own tools.
	Library *toollib.Library
}

// ErrorData is a script or pipeline error. Line is 0 when unknown.
type ErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// Result is the outcome of a Run.
type Result struct {
	Program     string       `json:"program"`
	Warnings    []string     `json:"warnings"`
	Diagnostics []string     `json:"diagnostics"`
	Errors      []ErrorData  `json:"errors"`
	Report      rules.Report `json:"report"`
}

// OK reports whether the run produced a program.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Run replaces the session's contents with the job in source and carries it
// through derivation, validation and emission. Script errors stop the run
// before anything is derived; design rule warnings do not.
func (s *Session) Run(source string, opts Options) Result {
	result := Result{
		Warnings:    []string{},
		Diagnostics: []string{},
		Errors:      []ErrorData{},
	}

	j, evalErrs, err := s.engine.Evaluate(source)
	if err != nil {
		s.logger.Error("job evaluation failed", zap.Error(err))
		result.Errors = append(result.Errors, ErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, ErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	s.Reset()
	if opts.Library != nil {
		result.Diagnostics = append(result.Diagnostics, s.LoadLibrary(opts.Library)...)
	}
	result.Diagnostics = append(result.Diagnostics, s.Apply(j)...)

	result.Report = s.Validate(opts.ApplyFixes)
	result.Warnings = append(result.Warnings, result.Report.Messages()...)

	result.Program = s.Program(opts.Title).Text()
	s.logger.Info("job run complete",
		zap.Int("operations", len(j.Operations)),
		zap.Int("warnings", result.Report.Warnings()))
	return result
}

// Evaluate parses a job script without touching the session.
func (s *Session) Evaluate(source string) (*engine.Job, []engine.EvalError, error) {
	return s.engine.Evaluate(source)
}
