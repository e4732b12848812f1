package dice

import (
	"fmt"
	"math/big"

	"github.com/cory-johannsen/dicedist/internal/dist"
)

// Ordered returns the distribution of n distinguishable m-sided dice: every
// n-tuple over [1, m] with probability 1/m^n.
//
// Precondition: n >= 0, m >= 1.
// Postcondition: Returns a distribution with m^n entries, or an error wrapping
// ErrInvalidArgument or dist.ErrTooLarge.
func Ordered(n, m int) (*dist.Distribution, error) {
	size, err := TupleCount(n, m)
	if err != nil {
		return nil, err
	}
	if size.Cmp(big.NewInt(dist.MaxEntries)) > 0 {
		return nil, fmt.Errorf("dice: building %dd%d: %w: %s entries", n, m, dist.ErrTooLarge, size)
	}
	sides := m
	if n == 0 {
		// Only the empty roll; no face is ever drawn.
		sides = 1
	}
	die, err := dist.Interval(1, sides)
	if err != nil {
		return nil, fmt.Errorf("dice: building d%d: %w", m, err)
	}
	d, err := die.ProductTimes(n)
	if err != nil {
		return nil, fmt.Errorf("dice: building %dd%d: %w", n, m, err)
	}
	return d, nil
}

// Unordered returns the distribution of n indistinguishable m-sided dice.
// Each outcome is the sorted face values, weighted by the number of ordered
// rolls that produce it.
//
// Precondition: n >= 0, m >= 1.
// Postcondition: Returns a distribution with C(m+n-1, n) entries, or an error
// wrapping ErrInvalidArgument, ErrOverflow or dist.ErrTooLarge.
func Unordered(n, m int) (*dist.Distribution, error) {
	size, err := OutcomeCount(n, m)
	if err != nil {
		return nil, err
	}
	if size.Cmp(big.NewInt(dist.MaxEntries)) > 0 {
		return nil, fmt.Errorf("dice: building %dd%d: %w: %s entries", n, m, dist.ErrTooLarge, size)
	}
	seq, err := Weights(n, m)
	if err != nil {
		return nil, err
	}
	return dist.FromWeights(seq)
}
