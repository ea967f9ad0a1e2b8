// Package sketch stands in for the host CAD object model: operations refer
// to input sketches by id and only ever need their bounding boxes.
package sketch

import (
	"sort"
	"sync"
)

// Vec3 is a point in model space, millimetres.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// NewBox builds a box from two opposite corners in any order.
func NewBox(a, b Vec3) Box {
	return Box{
		Min: Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

func (b Box) MinZ() float64 { return b.Min.Z }
func (b Box) MaxZ() float64 { return b.Max.Z }

// Source resolves sketch ids to bounding boxes. A missing id is not an error.
type Source interface {
	Box(id int) (Box, bool)
}

// Store is an in-memory Source. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	boxes map[int]Box
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{boxes: make(map[int]Box)}
}

// Put adds or replaces the box for id.
func (s *Store) Put(id int, b Box) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes[id] = b
}

// Delete removes id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boxes, id)
}

func (s *Store) Box(id int) (Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boxes[id]
	return b, ok
}

// IDs returns the stored ids in ascending order.
func (s *Store) IDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.boxes))
	for id := range s.boxes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
