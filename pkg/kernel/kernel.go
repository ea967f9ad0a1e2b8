// Package kernel defines the abstract geometry kernel used to build cutting
// tool solids. Tools are solids of revolution, so the interface is centred
// on revolving a 2-D side profile about the Z axis.
package kernel

import "errors"

// ErrDegenerateProfile is returned when a profile encloses no area.
var ErrDegenerateProfile = errors.New("kernel: degenerate profile")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Point2 is a point of a side profile. X is the distance from the axis of
// rotation and Y is the height along it.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Revolve sweeps a closed profile 360° about the Z axis. Profile X maps
	// to the radius and Y to Z.
	Revolve(profile []Point2) (Solid, error)
	// Cylinder is centred on the origin with its axis along Z.
	Cylinder(height, radius float64, segments int) (Solid, error)

	Union(a, b Solid) Solid
	Translate(s Solid, x, y, z float64) Solid

	ToMesh(s Solid) (*Mesh, error)
}

// CheckProfile reports whether a profile can be revolved: at least three
// points, none on the negative side of the axis, non-zero enclosed area.
func CheckProfile(profile []Point2) error {
	if len(profile) < 3 {
		return ErrDegenerateProfile
	}
	var area float64
	for i, p := range profile {
		if p.X < 0 {
			return ErrDegenerateProfile
		}
		q := profile[(i+1)%len(profile)]
		area += p.X*q.Y - q.X*p.Y
	}
	if area > -1e-9 && area < 1e-9 {
		return ErrDegenerateProfile
	}
	return nil
}
