package mesh

import (
	"fmt"
	"math"
	"slices"
)

// Kind identifies the element type of an attribute.
type Kind uint8

const (
	// KindFloat64 stores IEEE-754 double precision values.
	KindFloat64 Kind = 1
	// KindInt64 stores signed 64-bit integers (codes, ids, flags).
	KindInt64 Kind = 2
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindInt64:
		return "int64"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind returns the kind for a stable name.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "float64":
		return KindFloat64, true
	case "int64":
		return KindInt64, true
	default:
		return 0, false
	}
}

// Location says whether an attribute is attached to vertices or cells.
type Location uint8

const (
	// OnVertex attributes have one value per vertex.
	OnVertex Location = 0
	// OnCell attributes have one value per cell.
	OnCell Location = 1
)

func (l Location) String() string {
	if l == OnCell {
		return "cell"
	}
	return "vertex"
}

// Attribute is an immutable, typed value sequence.
//
// The zero value is an empty float64 attribute.
type Attribute struct {
	kind Kind
	f64  []float64
	i64  []int64
}

// Float64s returns a float64 attribute holding a copy of values.
func Float64s(values []float64) Attribute {
	return Attribute{kind: KindFloat64, f64: slices.Clone(values)}
}

// Int64s returns an int64 attribute holding a copy of values.
func Int64s(values []int64) Attribute {
	return Attribute{kind: KindInt64, i64: slices.Clone(values)}
}

// Kind returns the element type.
func (a Attribute) Kind() Kind {
	if a.kind == 0 {
		return KindFloat64
	}
	return a.kind
}

// Len returns the number of values.
func (a Attribute) Len() int {
	if a.kind == KindInt64 {
		return len(a.i64)
	}
	return len(a.f64)
}

// Float64 returns value i converted to float64.
func (a Attribute) Float64(i int) float64 {
	if a.kind == KindInt64 {
		return float64(a.i64[i])
	}
	return a.f64[i]
}

// Int64 returns value i converted to int64. Float values are truncated.
func (a Attribute) Int64(i int) int64 {
	if a.kind == KindInt64 {
		return a.i64[i]
	}
	return int64(a.f64[i])
}

// Float64Values returns a copy of the values as float64.
func (a Attribute) Float64Values() []float64 {
	if a.kind != KindInt64 {
		return slices.Clone(a.f64)
	}
	out := make([]float64, len(a.i64))
	for i, v := range a.i64 {
		out[i] = float64(v)
	}
	return out
}

// Int64Values returns a copy of the values as int64.
func (a Attribute) Int64Values() []int64 {
	if a.kind == KindInt64 {
		return slices.Clone(a.i64)
	}
	out := make([]int64, len(a.f64))
	for i, v := range a.f64 {
		out[i] = int64(v)
	}
	return out
}

// Bits returns value i as raw 64 bits, suitable for binary encoding.
func (a Attribute) Bits(i int) uint64 {
	if a.kind == KindInt64 {
		return uint64(a.i64[i])
	}
	return math.Float64bits(a.f64[i])
}

// FromBits builds an attribute of kind k from raw 64-bit words.
func FromBits(k Kind, words []uint64) (Attribute, error) {
	switch k {
	case KindFloat64:
		vals := make([]float64, len(words))
		for i, w := range words {
			vals[i] = math.Float64frombits(w)
		}
		return Attribute{kind: KindFloat64, f64: vals}, nil
	case KindInt64:
		vals := make([]int64, len(words))
		for i, w := range words {
			vals[i] = int64(w)
		}
		return Attribute{kind: KindInt64, i64: vals}, nil
	default:
		return Attribute{}, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

// Equal reports whether a and b have the same kind and values.
// NaN values compare equal to each other.
func (a Attribute) Equal(b Attribute) bool {
	if a.Kind() != b.Kind() || a.Len() != b.Len() {
		return false
	}
	if a.Kind() == KindInt64 {
		return slices.Equal(a.i64, b.i64)
	}
	for i := range a.f64 {
		x, y := a.f64[i], b.f64[i]
		if x != y && !(math.IsNaN(x) && math.IsNaN(y)) {
			return false
		}
	}
	return true
}

// concat appends b to a. Both must have the same kind.
func (a Attribute) concat(b Attribute) Attribute {
	if a.Kind() == KindInt64 {
		return Attribute{kind: KindInt64, i64: append(slices.Clone(a.i64), b.i64...)}
	}
	return Attribute{kind: KindFloat64, f64: append(slices.Clone(a.f64), b.f64...)}
}
