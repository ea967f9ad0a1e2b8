package tooling

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chazu/cutplan/pkg/logging"
)

// Entry is one row of the registry listing.
type Entry struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
}

// Registry owns the tool collection and keeps tool numbers unique.
// Iteration follows insertion order. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	order  []*Tool
	byNum  map[int]*Tool
	logger *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger is allowed.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		byNum:  make(map[int]*Tool),
		logger: logging.OrNop(logger),
	}
}

// Add registers a tool. Returns ErrInvalidToolNumber for numbers below 1
// and ErrDuplicateToolNumber when the number is taken.
func (r *Registry) Add(t *Tool) error {
	n := t.Number()

	r.mu.Lock()
	defer r.mu.Unlock()

	if n < 1 {
		r.logger.Warn("rejected tool", zap.Int("tool_number", n), zap.String("reason", "non-positive number"))
		return fmt.Errorf("add tool %d: %w", n, ErrInvalidToolNumber)
	}
	if existing, ok := r.byNum[n]; ok {
		r.logger.Warn("rejected tool",
			zap.Int("tool_number", n),
			zap.String("title", t.Title()),
			zap.String("existing", existing.Title()))
		return fmt.Errorf("add tool %d: %w", n, ErrDuplicateToolNumber)
	}

	r.byNum[n] = t
	r.order = append(r.order, t)
	return nil
}

// Remove deletes the tool with number n and releases its cached geometry.
// Reports whether a tool was removed.
func (r *Registry) Remove(n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byNum[n]
	if !ok {
		return false
	}
	delete(r.byNum, n)
	for i, o := range r.order {
		if o == t {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	t.Release()
	return true
}

// Find returns the tool with number n.
func (r *Registry) Find(n int) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byNum[n]
	return t, ok
}

// FindFirstByType returns the number of the first registered tool of type t.
func (r *Registry) FindFirstByType(t Type) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tool := range r.order {
		if tool.Type() == t {
			return tool.Number(), true
		}
	}
	return 0, false
}

// FindAllCuttingTools lists every tool as (number, title) in insertion order.
func (r *Registry) FindAllCuttingTools() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, t := range r.order {
		entries = append(entries, Entry{Number: t.Number(), Title: t.Title()})
	}
	return entries
}

// CutterType returns the type of tool n, or TypeUndefined when absent.
func (r *Registry) CutterType(n int) Type {
	if t, ok := r.Find(n); ok {
		return t.Type()
	}
	return TypeUndefined
}

// CutterMaterial returns the material of tool n, or MaterialUndefined when
// absent.
func (r *Registry) CutterMaterial(n int) Material {
	if t, ok := r.Find(n); ok {
		return t.Params().Material
	}
	return MaterialUndefined
}

// NextFreeNumber returns one more than the highest registered number.
func (r *Registry) NextFreeNumber() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	next := 1
	for n := range r.byNum {
		if n >= next {
			next = n + 1
		}
	}
	return next
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Tools returns the registered tools in insertion order.
func (r *Registry) Tools() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, len(r.order))
	copy(out, r.order)
	return out
}
