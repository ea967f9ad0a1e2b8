package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single evaluation.
var EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started before this one
// finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

type evalResult struct {
	job    *Job
	errors []EvalError
	err    error
}

// waitWithTimeout waits for ch or EvalTimeout, whichever is first. A result
// whose generation is no longer current is discarded. On timeout the
// evaluating goroutine keeps running until the script returns.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (*Job, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.job, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
