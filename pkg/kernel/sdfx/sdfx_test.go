package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/cutplan/pkg/kernel"
)

// Small resolution keeps the marching cubes tests quick.
const testCells = 24

func endMillProfile(radius, height float64) []kernel.Point2 {
	return []kernel.Point2{{X: 0, Y: 0}, {X: radius, Y: 0}, {X: radius, Y: height}, {X: 0, Y: height}}
}

func checkBounds(t *testing.T, s kernel.Solid, expectMin, expectMax [3]float64, tol float64) {
	t.Helper()
	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected ~%f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected ~%f", i, max[i], expectMax[i])
		}
	}
}

func TestNewDefaultCells(t *testing.T) {
	if got := New(0).MeshCells(); got != DefaultMeshCells {
		t.Errorf("MeshCells() = %d, want %d", got, DefaultMeshCells)
	}
	if got := New(12).MeshCells(); got != 12 {
		t.Errorf("MeshCells() = %d, want 12", got)
	}
}

func TestRevolve(t *testing.T) {
	k := New(testCells)
	s, err := k.Revolve(endMillProfile(3, 20))
	if err != nil {
		t.Fatalf("Revolve failed: %v", err)
	}
	checkBounds(t, s, [3]float64{-3, -3, 0}, [3]float64{3, 3, 20}, 0.5)

	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), mesh.TriangleCount()*3)
	}
}

func TestRevolveCone(t *testing.T) {
	k := New(testCells)
	// Chamfer bit tip: point on the axis, widening to radius 5 at height 5.
	s, err := k.Revolve([]kernel.Point2{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10}})
	if err != nil {
		t.Fatalf("Revolve failed: %v", err)
	}
	checkBounds(t, s, [3]float64{-5, -5, 0}, [3]float64{5, 5, 10}, 0.5)
}

func TestRevolveDegenerate(t *testing.T) {
	k := New(testCells)
	_, err := k.Revolve([]kernel.Point2{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 0, Y: 20}})
	if !errors.Is(err, kernel.ErrDegenerateProfile) {
		t.Fatalf("Revolve error = %v, want ErrDegenerateProfile", err)
	}
}

func TestCylinder(t *testing.T) {
	k := New(testCells)
	cyl, err := k.Cylinder(50, 10, 32)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	checkBounds(t, cyl, [3]float64{-10, -10, -25}, [3]float64{10, 10, 25}, 0.01)

	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.TriangleCount() == 0 {
		t.Fatal("expected non-zero triangle count")
	}
}

func TestCylinderInvalid(t *testing.T) {
	k := New(testCells)
	if _, err := k.Cylinder(-1, 10, 32); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestUnionAndTranslate(t *testing.T) {
	k := New(testCells)
	cutter, err := k.Revolve(endMillProfile(3, 20))
	if err != nil {
		t.Fatalf("Revolve failed: %v", err)
	}
	shank, err := k.Cylinder(30, 4, 32)
	if err != nil {
		t.Fatalf("Cylinder failed: %v", err)
	}
	// Shank from z=20 to z=50.
	shank = k.Translate(shank, 0, 0, 35)
	checkBounds(t, shank, [3]float64{-4, -4, 20}, [3]float64{4, 4, 50}, 0.01)

	u := k.Union(cutter, shank)
	checkBounds(t, u, [3]float64{-4, -4, 0}, [3]float64{4, 4, 50}, 0.5)

	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
	t.Logf("union triangle count: %d", mesh.TriangleCount())
}
