package tooling

import (
	"fmt"
	"math"

	"github.com/chazu/cutplan/pkg/kernel"
	"github.com/chazu/cutplan/pkg/units"
)

// arcSegments is the number of straight segments approximating a corner radius.
const arcSegments = 8

// CuttingRadius returns the radius the tool cuts at the given depth below
// its tip, in millimetres. A negative depth asks for the full radius. Tools
// with an angled cutting edge are narrower near the tip: the radius grows
// from the flat radius along the cone until it reaches Diameter/2.
func (t *Tool) CuttingRadius(depth float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params.cuttingRadius(depth)
}

// CuttingRadiusIn is CuttingRadius expressed in program units u.
func (t *Tool) CuttingRadiusIn(u units.Units, depth float64) float64 {
	return u.FromInternal(t.CuttingRadius(depth))
}

func (p Params) cuttingRadius(depth float64) float64 {
	full := p.Diameter / 2
	if depth < 0 || p.CuttingEdgeAngle <= 0 || p.CuttingEdgeAngle >= 90 {
		return full
	}
	r := p.FlatRadius + depth*math.Tan(degToRad(p.CuttingEdgeAngle))
	return math.Min(r, full)
}

// SideProfile returns the closed generator curve of the tool's cutting
// section: X is the radius, Y the height above the tip. Revolving it about
// the Y axis gives the cutter body.
func (t *Tool) SideProfile() ([]kernel.Point2, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sideProfileLocked()
}

func (t *Tool) sideProfileLocked() ([]kernel.Point2, error) {
	if t.profileRev != t.rev {
		t.profile, t.profileErr = t.params.sideProfile()
		t.profileRev = t.rev
	}
	if t.profileErr != nil {
		return nil, t.profileErr
	}
	out := make([]kernel.Point2, len(t.profile))
	copy(out, t.profile)
	return out, nil
}

func (p Params) sideProfile() ([]kernel.Point2, error) {
	if p.Type == TypeTurningTool {
		return nil, fmt.Errorf("%w: turning tools are not solids of revolution", ErrGeometryUnavailable)
	}
	R := p.Diameter / 2
	if R <= 0 {
		return nil, fmt.Errorf("%w: diameter must be positive", ErrGeometryUnavailable)
	}

	flat := clamp(p.FlatRadius, 0, R)
	corner := clamp(p.CornerRadius, 0, R-flat)

	pts := []kernel.Point2{{X: 0, Y: 0}}
	add := func(x, y float64) {
		last := pts[len(pts)-1]
		if math.Abs(last.X-x) < 1e-9 && math.Abs(last.Y-y) < 1e-9 {
			return
		}
		pts = append(pts, kernel.Point2{X: x, Y: y})
	}

	add(flat, 0)

	// Quarter arc centred on (flat, corner) from the bottom to the side.
	if corner > 0 {
		for i := 1; i <= arcSegments; i++ {
			theta := -math.Pi/2 + float64(i)*(math.Pi/2)/arcSegments
			add(flat+corner*math.Cos(theta), corner+corner*math.Sin(theta))
		}
	}

	x, y := flat+corner, corner
	if x < R {
		if p.CuttingEdgeAngle > 0 && p.CuttingEdgeAngle < 90 {
			y += (R - x) / math.Tan(degToRad(p.CuttingEdgeAngle))
		}
		add(R, y)
	}

	top := math.Max(p.CuttingEdgeHeight, y)
	if top <= 0 {
		return nil, fmt.Errorf("%w: tool has no height", ErrGeometryUnavailable)
	}
	add(R, top)
	add(0, top)

	if err := kernel.CheckProfile(pts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryUnavailable, err)
	}
	return pts, nil
}

// Shape returns the tool solid: the revolved cutting section plus a shank
// cylinder reaching up to the tool length offset. The solid is cached per
// kernel until the geometry changes.
func (t *Tool) Shape(k kernel.Kernel) (kernel.Solid, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.shape != nil && t.shapeRev == t.rev && t.shapeKernel == k {
		return t.shape, nil
	}

	profile, err := t.sideProfileLocked()
	if err != nil {
		return nil, err
	}
	body, err := k.Revolve(profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryUnavailable, err)
	}

	top := profile[len(profile)-1].Y
	if shankLen := t.params.ToolLengthOffset - top; shankLen > 0 {
		shank, err := k.Cylinder(shankLen, t.params.Diameter/2, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGeometryUnavailable, err)
		}
		body = k.Union(body, k.Translate(shank, 0, 0, top+shankLen/2))
	}

	t.shape = body
	t.shapeKernel = k
	t.shapeRev = t.rev
	return body, nil
}

// Mesh tessellates the tool solid.
func (t *Tool) Mesh(k kernel.Kernel) (*kernel.Mesh, error) {
	s, err := t.Shape(k)
	if err != nil {
		return nil, err
	}
	m, err := k.ToMesh(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometryUnavailable, err)
	}
	m.Label = t.Title()
	return m, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
