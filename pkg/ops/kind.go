// Package ops holds machining operations and their parameter sets.
//
// An Operation is a tagged kind plus independent capability structs. Each
// capability (SpeedParams, DepthParams) loads its defaults from the
// configuration store, derives initial values and serializes itself.
package ops

import (
	"fmt"
	"strings"

	"github.com/chazu/cutplan/pkg/tooling"
)

// Kind is the type of machining operation.
type Kind int

const (
	KindProfile Kind = iota
	KindPocket
	KindDrilling
	KindChamfer
	KindProbe
)

var kindNames = [...]string{"profile", "pocket", "drilling", "chamfer", "probe"}

var kindTitles = [...]string{"Profile", "Pocket", "Drilling", "Chamfer", "Probe"}

// Kinds lists every operation kind.
func Kinds() []Kind {
	return []Kind{KindProfile, KindPocket, KindDrilling, KindChamfer, KindProbe}
}

func (k Kind) valid() bool { return k >= KindProfile && k <= KindProbe }

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the lower-case kind name.
func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == key {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// HasSpeed reports whether operations of this kind carry feeds and speeds.
func (k Kind) HasSpeed() bool {
	return k.valid()
}

// HasDepth reports whether operations of this kind step down through
// material between a start and a final depth.
func (k Kind) HasDepth() bool {
	switch k {
	case KindProfile, KindPocket, KindDrilling, KindChamfer:
		return true
	}
	return false
}

// PreferredToolType is the tool type chosen when an operation is created
// without a tool number.
func (k Kind) PreferredToolType() tooling.Type {
	switch k {
	case KindProfile, KindPocket:
		return tooling.TypeEndMill
	case KindDrilling:
		return tooling.TypeDrill
	case KindChamfer:
		return tooling.TypeChamfer
	case KindProbe:
		return tooling.TypeTouchProbe
	}
	return tooling.TypeUndefined
}

// DefaultTitle is the title given to new operations of this kind.
func (k Kind) DefaultTitle() string {
	if !k.valid() {
		return "Operation"
	}
	return kindTitles[k]
}
