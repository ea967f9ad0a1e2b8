// Package props describes editable parameters exposed to property editors.
package props

// Kind tells an editor how to present a value.
type Kind int

const (
	KindLength Kind = iota // a length stored in millimetres
	KindDouble             // a unitless real number (angles, ratios)
	KindInt                // an integer
	KindChoice             // an index into a fixed list
)

func (k Kind) String() string {
	switch k {
	case KindLength:
		return "length"
	case KindDouble:
		return "double"
	case KindInt:
		return "int"
	case KindChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Property is one editable value. Set applies the new value to its owner
// and persists it as the default for objects created later.
type Property struct {
	Name    string
	Kind    Kind
	Value   float64
	Choices []string // only for KindChoice
	Set     func(v float64) error
}

// Find returns the property with the given name, or nil.
func Find(list []Property, name string) *Property {
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	return nil
}
