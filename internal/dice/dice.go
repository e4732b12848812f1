// Package dice computes exact probability distributions over the outcomes of
// rolling N M-sided dice, both with the dice distinguishable (ordered) and
// with the dice indistinguishable (unordered).
package dice

import (
	"errors"

	"github.com/cory-johannsen/dicedist/internal/dist"
)

var (
	// ErrInvalidArgument is returned when the die count is negative or the side count is below 1.
	ErrInvalidArgument = errors.New("dice: invalid argument")
	// ErrOverflow is returned when an enumeration is too large for fixed-width indexing.
	ErrOverflow = errors.New("dice: outcome count overflows int")
	// ErrLimitExceeded is returned by Builder when a pool breaks a configured limit.
	ErrLimitExceeded = errors.New("dice: limit exceeded")
)

// Outcome is the face values of one roll. Unordered outcomes are
// non-decreasing.
type Outcome = dist.Tuple
