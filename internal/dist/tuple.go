package dist

import (
	"slices"
	"strconv"
	"strings"
)

// Tuple is an ordered sequence of integer values, e.g. the faces shown by a
// set of dice. A Tuple handed out by this package is never mutated afterwards.
type Tuple []int

// String renders t as "(1, 2, 3)". The empty tuple renders as "()".
func (t Tuple) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(v))
	}
	b.WriteByte(')')
	return b.String()
}

// Key returns a string usable as a map key. Equal tuples have equal keys.
func (t Tuple) Key() string {
	parts := make([]string, len(t))
	for i, v := range t {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Compare orders tuples lexicographically; a proper prefix sorts first.
//
// Postcondition: returns -1, 0 or +1.
func (t Tuple) Compare(other Tuple) int {
	return slices.Compare(t, other)
}

// Clone returns an independent copy of t.
func (t Tuple) Clone() Tuple {
	if t == nil {
		return Tuple{}
	}
	return slices.Clone(t)
}

// Sorted returns a copy of t in non-decreasing order.
func (t Tuple) Sorted() Tuple {
	out := t.Clone()
	slices.Sort(out)
	return out
}

// IsSorted reports whether t is non-decreasing.
func (t Tuple) IsSorted() bool {
	return slices.IsSorted(t)
}
