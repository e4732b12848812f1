// Package dist provides an exact discrete probability distribution over
// integer tuples, built from explicit value/weight pairs.
//
// Weights are arbitrary-precision integers and probabilities are exact
// rationals, so no rounding ever enters a computed distribution.
package dist

import (
	"errors"
	"fmt"
	"iter"
	"math/big"
	"slices"

	"gonum.org/v1/gonum/stat/combin"
)

var (
	// ErrEmpty is returned when a distribution would have no values.
	ErrEmpty = errors.New("dist: empty distribution")
	// ErrNonPositiveWeight is returned when a value is given a weight <= 0.
	ErrNonPositiveWeight = errors.New("dist: weight must be positive")
	// ErrInvalidArgument is returned for malformed arguments such as a negative repeat count.
	ErrInvalidArgument = errors.New("dist: invalid argument")
	// ErrTooLarge is returned when a product would have more entries than can be materialised.
	ErrTooLarge = errors.New("dist: distribution too large")
)

// MaxEntries is the largest number of entries a constructor will materialise.
const MaxEntries = 1 << 24

// Entry is one value of a distribution together with its relative weight.
type Entry struct {
	Value  Tuple
	Weight *big.Int
}

// Distribution is an immutable discrete distribution over Tuples.
//
// Invariant: entries are sorted by Value, values are unique, every weight is
// positive, and total == sum of weights.
// A Distribution is safe for concurrent use by multiple readers.
type Distribution struct {
	entries []Entry
	index   map[string]int
	total   *big.Int
}

// New builds a Distribution from entries. Entries with equal values are merged
// by summing their weights. The distribution normalises internally; callers
// pass relative weights.
//
// Precondition: entries must be non-empty and every weight must be non-nil and positive.
// Postcondition: Returns a Distribution or an error wrapping ErrEmpty / ErrNonPositiveWeight.
func New(entries []Entry) (*Distribution, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	for _, e := range entries {
		if e.Weight == nil || e.Weight.Sign() <= 0 {
			return nil, fmt.Errorf("%w: value %s", ErrNonPositiveWeight, e.Value)
		}
	}
	return build(entries), nil
}

// FromWeights builds a Distribution by draining seq.
//
// Postcondition: identical to New over the collected pairs.
func FromWeights(seq iter.Seq2[Tuple, *big.Int]) (*Distribution, error) {
	var entries []Entry
	for v, w := range seq {
		entries = append(entries, Entry{Value: v, Weight: w})
	}
	return New(entries)
}

// Interval returns the uniform distribution over the 1-tuples (lo) .. (hi).
//
// Precondition: lo <= hi and hi-lo < MaxEntries.
// Postcondition: Len() == hi-lo+1 and every value has weight 1.
func Interval(lo, hi int) (*Distribution, error) {
	if hi < lo {
		return nil, fmt.Errorf("%w: interval [%d, %d]", ErrEmpty, lo, hi)
	}
	// Unsigned difference cannot overflow for hi >= lo.
	if uint64(hi)-uint64(lo) >= MaxEntries {
		return nil, fmt.Errorf("%w: interval [%d, %d]", ErrTooLarge, lo, hi)
	}
	size := hi - lo + 1
	entries := make([]Entry, 0, size)
	for i := range size {
		entries = append(entries, Entry{Value: Tuple{lo + i}, Weight: big.NewInt(1)})
	}
	return build(entries), nil
}

// build merges, copies and sorts entries. Weights are assumed valid.
func build(entries []Entry) *Distribution {
	d := &Distribution{
		index: make(map[string]int, len(entries)),
		total: new(big.Int),
	}
	merged := make([]Entry, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		k := e.Value.Key()
		if i, ok := seen[k]; ok {
			merged[i].Weight.Add(merged[i].Weight, e.Weight)
			continue
		}
		seen[k] = len(merged)
		merged = append(merged, Entry{Value: e.Value.Clone(), Weight: new(big.Int).Set(e.Weight)})
	}
	slices.SortFunc(merged, func(a, b Entry) int { return a.Value.Compare(b.Value) })
	for i, e := range merged {
		d.index[e.Value.Key()] = i
		d.total.Add(d.total, e.Weight)
	}
	d.entries = merged
	return d
}

// Len returns the number of distinct values.
func (d *Distribution) Len() int { return len(d.entries) }

// Total returns the sum of all weights.
func (d *Distribution) Total() *big.Int { return new(big.Int).Set(d.total) }

// Weight returns the weight of v, or zero when v is outside the support.
func (d *Distribution) Weight(v Tuple) *big.Int {
	i, ok := d.index[v.Key()]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(d.entries[i].Weight)
}

// Probability returns the exact probability of v, or zero when v is outside
// the support.
func (d *Distribution) Probability(v Tuple) *big.Rat {
	return new(big.Rat).SetFrac(d.Weight(v), d.total)
}

// Entries returns a copy of the entries in value order.
func (d *Distribution) Entries() []Entry {
	out := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out[i] = Entry{Value: e.Value.Clone(), Weight: new(big.Int).Set(e.Weight)}
	}
	return out
}

// All iterates over values and weights in value order. The yielded values
// are copies and may be retained.
func (d *Distribution) All() iter.Seq2[Tuple, *big.Int] {
	return func(yield func(Tuple, *big.Int) bool) {
		for _, e := range d.entries {
			if !yield(e.Value.Clone(), new(big.Int).Set(e.Weight)) {
				return
			}
		}
	}
}

// Product returns the distribution of independently drawing from d and then
// from other, with each pair of values concatenated into one tuple.
//
// Postcondition: Len() == d.Len()*other.Len() when no concatenations collide,
// and Total() == d.Total()*other.Total().
func (d *Distribution) Product(other *Distribution) *Distribution {
	pairs := combin.Cartesian([]int{len(d.entries), len(other.entries)})
	entries := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		a, b := d.entries[p[0]], other.entries[p[1]]
		v := make(Tuple, 0, len(a.Value)+len(b.Value))
		v = append(append(v, a.Value...), b.Value...)
		entries = append(entries, Entry{Value: v, Weight: new(big.Int).Mul(a.Weight, b.Weight)})
	}
	return build(entries)
}

// ProductTimes returns the n-fold independent product of d with itself.
// ProductTimes(0) is the distribution holding only the empty tuple.
//
// Precondition: n >= 0 and d.Len()^n <= MaxEntries.
// Postcondition: Total() == d.Total()^n.
func (d *Distribution) ProductTimes(n int) (*Distribution, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: repeat count %d", ErrInvalidArgument, n)
	}
	if n == 0 {
		return build([]Entry{{Value: Tuple{}, Weight: big.NewInt(1)}}), nil
	}
	size := new(big.Int).Exp(big.NewInt(int64(len(d.entries))), big.NewInt(int64(n)), nil)
	if size.Cmp(big.NewInt(MaxEntries)) > 0 {
		return nil, fmt.Errorf("%w: %d^%d entries", ErrTooLarge, len(d.entries), n)
	}

	lens := make([]int, n)
	for i := range lens {
		lens[i] = len(d.entries)
	}
	gen := combin.NewCartesianGenerator(lens)
	idx := make([]int, n)
	entries := make([]Entry, 0, int(size.Int64()))
	for gen.Next() {
		gen.Product(idx)
		var v Tuple
		w := big.NewInt(1)
		for _, i := range idx {
			v = append(v, d.entries[i].Value...)
			w.Mul(w, d.entries[i].Weight)
		}
		if v == nil {
			v = Tuple{}
		}
		entries = append(entries, Entry{Value: v, Weight: w})
	}
	return build(entries), nil
}

// Map returns the image of d under f. Values mapped to the same tuple are
// merged and their weights summed.
//
// Precondition: f must not retain or mutate its argument.
func (d *Distribution) Map(f func(Tuple) Tuple) *Distribution {
	entries := make([]Entry, len(d.entries))
	for i, e := range d.entries {
		entries[i] = Entry{Value: f(e.Value.Clone()), Weight: e.Weight}
	}
	return build(entries)
}

// Equal reports whether d and other have the same support and assign the same
// probability to every value. Weights need not be equal, only proportional.
func (d *Distribution) Equal(other *Distribution) bool {
	if other == nil || len(d.entries) != len(other.entries) {
		return false
	}
	var lhs, rhs big.Int
	for i, e := range d.entries {
		o := other.entries[i]
		if e.Value.Compare(o.Value) != 0 {
			return false
		}
		lhs.Mul(e.Weight, other.total)
		rhs.Mul(o.Weight, d.total)
		if lhs.Cmp(&rhs) != 0 {
			return false
		}
	}
	return true
}
