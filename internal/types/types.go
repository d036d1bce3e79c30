// Package types models the primitive and compound types of the
// Pascal dialect: integer, real, boolean, char, string, and arrays of
// any of those, parameterized by element type and dimension count.
package types

import "fmt"

// Kind is the primitive or structural category of a Type.
type Kind int

const (
	Unknown Kind = iota
	Integer
	Real
	Boolean
	Char
	String
	Array
)

// Type is a primitive type or an array of a primitive/array type.
// Arrays are not statically bounds-checked; only the element type and
// dimension count participate in compatibility checks.
type Type struct {
	Kind Kind
	Elem *Type // non-nil only when Kind == Array
	Dims int   // number of index dimensions, only meaningful when Kind == Array
}

var (
	IntegerType = Type{Kind: Integer}
	RealType    = Type{Kind: Real}
	BooleanType = Type{Kind: Boolean}
	CharType    = Type{Kind: Char}
	StringType  = Type{Kind: String}
	UnknownType = Type{Kind: Unknown}
)

// NewArray returns the array type with the given element type and
// dimension count.
func NewArray(elem Type, dims int) Type {
	return Type{Kind: Array, Elem: &elem, Dims: dims}
}

func (t Type) IsUnknown() bool { return t.Kind == Unknown }
func (t Type) IsNumeric() bool { return t.Kind == Integer || t.Kind == Real }
func (t Type) IsArray() bool   { return t.Kind == Array }

// Equal reports whether t and other denote the same type, recursing
// into array element types.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == Array {
		return t.Dims == other.Dims && t.Elem.Equal(*other.Elem)
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Boolean:
		return "boolean"
	case Char:
		return "char"
	case String:
		return "string"
	case Array:
		return fmt.Sprintf("array of %s", t.Elem.String())
	default:
		return "unknown"
	}
}

// FromName resolves a primitive type name (case-insensitive handled
// by the caller) to its Type, or UnknownType if name isn't primitive.
func FromName(name string) Type {
	switch name {
	case "integer":
		return IntegerType
	case "real":
		return RealType
	case "boolean":
		return BooleanType
	case "char":
		return CharType
	case "string":
		return StringType
	default:
		return UnknownType
	}
}
