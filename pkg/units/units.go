// Package units converts lengths between the internal storage unit
// (millimetres) and the unit a program or drawing is expressed in.
package units

import (
	"fmt"
	"strings"
)

// Units is the number of millimetres in one program unit.
type Units float64

const (
	Millimetres Units = 1.0
	Inches      Units = 25.4
)

// Parse accepts the usual spellings of metric and imperial units.
func Parse(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mm", "metric", "millimetres", "millimeters":
		return Millimetres, nil
	case "in", "inch", "inches", "imperial":
		return Inches, nil
	}
	return 0, fmt.Errorf("unknown units %q, expected mm or inch", s)
}

func (u Units) factor() float64 {
	if u <= 0 {
		return float64(Millimetres)
	}
	return float64(u)
}

// FromInternal converts a stored millimetre value into u.
func (u Units) FromInternal(v float64) float64 {
	return v / u.factor()
}

// ToInternal converts a value expressed in u into millimetres.
func (u Units) ToInternal(v float64) float64 {
	return v * u.factor()
}

// IsMetric reports whether u is millimetres (or unset).
func (u Units) IsMetric() bool {
	return u.factor() == float64(Millimetres)
}

func (u Units) String() string {
	switch u.factor() {
	case float64(Millimetres):
		return "mm"
	case float64(Inches):
		return "inch"
	default:
		return fmt.Sprintf("Units(%g)", float64(u))
	}
}
