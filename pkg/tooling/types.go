// Package tooling models cutting tools: their geometry and taxonomy, the
// registry that keys them by tool number, naming, persistence and the
// solids built from their side profiles.
package tooling

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateToolNumber is returned when adding a tool whose number is
	// already registered.
	ErrDuplicateToolNumber = errors.New("tooling: duplicate tool number")
	// ErrInvalidToolNumber is returned for tool numbers below 1.
	ErrInvalidToolNumber = errors.New("tooling: tool number must be positive")
	// ErrGeometryUnavailable is returned when a tool's geometry cannot be
	// turned into a profile or solid.
	ErrGeometryUnavailable = errors.New("tooling: geometry unavailable")
)

// Type is the kind of cutting tool. It decides which geometry fields mean
// anything.
type Type int

const (
	TypeDrill Type = iota
	TypeCentreDrill
	TypeEndMill
	TypeSlotCutter
	TypeBallEndMill
	TypeChamfer
	TypeTurningTool
	TypeTouchProbe
	TypeToolLengthSwitch
	TypeUndefined
)

var typeNames = [...]string{
	"drill", "centre-drill", "end-mill", "slot-cutter", "ball-end-mill",
	"chamfer", "turning-tool", "touch-probe", "tool-length-switch", "undefined",
}

var typeDescriptions = [...]string{
	"Drill Bit", "Centre Drill Bit", "End Mill", "Slot Cutter", "Ball End Mill",
	"Chamfer", "Turning Tool", "Touch Probe", "Tool Length Switch", "Undefined",
}

// Types lists every concrete tool type in menu order.
func Types() []Type {
	return []Type{
		TypeDrill, TypeCentreDrill, TypeEndMill, TypeSlotCutter, TypeBallEndMill,
		TypeChamfer, TypeTurningTool, TypeTouchProbe, TypeToolLengthSwitch,
	}
}

func (t Type) valid() bool { return t >= TypeDrill && t <= TypeUndefined }

// String returns the kebab-case name used in scripts and tool libraries.
func (t Type) String() string {
	if !t.valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Description returns the human-readable name.
func (t Type) Description() string {
	if !t.valid() {
		return typeDescriptions[TypeUndefined]
	}
	return typeDescriptions[t]
}

// ParseType accepts the kebab-case name of a type, with a few common
// alternative spellings.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	switch key {
	case "center-drill":
		return TypeCentreDrill, nil
	case "endmill":
		return TypeEndMill, nil
	case "ball-nose", "ballnose", "ball-mill":
		return TypeBallEndMill, nil
	case "probe":
		return TypeTouchProbe, nil
	}
	for i, n := range typeNames {
		if n == key {
			return Type(i), nil
		}
	}
	return TypeUndefined, fmt.Errorf("unknown tool type %q", s)
}

func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Material describes the cutting surface.
type Material int

const (
	MaterialHSS Material = iota
	MaterialCarbide
	MaterialUndefined
)

var materialNames = [...]string{"hss", "carbide", "undefined"}

var materialDescriptions = [...]string{"High Speed Steel", "Carbide", "Undefined"}

// Materials lists every concrete material.
func Materials() []Material {
	return []Material{MaterialHSS, MaterialCarbide}
}

func (m Material) valid() bool { return m >= MaterialHSS && m <= MaterialUndefined }

func (m Material) String() string {
	if !m.valid() {
		return fmt.Sprintf("Material(%d)", int(m))
	}
	return materialNames[m]
}

// Description returns the human-readable name.
func (m Material) Description() string {
	if !m.valid() {
		return materialDescriptions[MaterialUndefined]
	}
	return materialDescriptions[m]
}

// ParseMaterial accepts "hss", "high-speed-steel" or "carbide".
func ParseMaterial(s string) (Material, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	switch key {
	case "hss", "high-speed-steel":
		return MaterialHSS, nil
	case "carbide":
		return MaterialCarbide, nil
	case "undefined":
		return MaterialUndefined, nil
	}
	return MaterialUndefined, fmt.Errorf("unknown tool material %q", s)
}

func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Material) UnmarshalText(b []byte) error {
	v, err := ParseMaterial(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
