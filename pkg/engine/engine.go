// Package engine evaluates job scripts: small zygomys programs that declare
// units, tools, sketches, fixtures and operations.
//
//	(units :mm)
//	(tool :number 1 :type :end-mill :diameter 6 :material :carbide)
//	(sketch :id 1 :min (vec3 0 0 0) :max (vec3 40 40 10))
//	(operation :kind :pocket :id 1 :tool 1 :sketches (list 1) :step-down 1.5)
//
// Scripts run in a fresh sandbox with no filesystem or syscall access.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/logging"
)

// EvalError is a problem in the script itself: a parse error or a runtime
// error raised by a form.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scripts. It is safe for concurrent use; only the result
// of the most recent Evaluate call is returned, older ones are superseded.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	logger     *zap.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logging.OrNop(logger)}
}

// Evaluate runs source and returns the job it declares.
//
//   - success: job, nil, nil
//   - script errors: nil, eval errors, nil
//   - timeout, panic or superseded: nil, nil, error
func (e *Engine) Evaluate(source string) (*Job, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		job, evalErrs, err := e.evaluate(source)
		ch <- evalResult{job: job, errors: evalErrs, err: err}
	}()

	job, evalErrs, err := waitWithTimeout(ch, gen, &e.mu, &e.generation)
	switch {
	case err != nil:
		e.logger.Warn("job evaluation failed", zap.Error(err))
	case len(evalErrs) > 0:
		e.logger.Debug("job script has errors", zap.Int("count", len(evalErrs)))
	default:
		e.logger.Debug("job evaluated",
			zap.Int("tools", len(job.Tools)),
			zap.Int("sketches", len(job.Sketches)),
			zap.Int("operations", len(job.Operations)))
	}
	return job, evalErrs, err
}

func (e *Engine) evaluate(source string) (*Job, []EvalError, error) {
	job := NewJob()
	if strings.TrimSpace(source) == "" {
		return job, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, job)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return job, nil, nil
}

// linePattern matches "Error on line N: ..." from the zygomys parser.
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
