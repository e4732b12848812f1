package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Pool is a parsed dice pool such as "3d6".
// Invariant: Count >= 0, Sides >= 1 after successful Parse.
type Pool struct {
	Raw   string // original input string
	Count int    // number of dice
	Sides int    // faces per die, valued 1..Sides
}

// String renders the pool in canonical "NdM" form.
func (p Pool) String() string {
	return fmt.Sprintf("%dd%d", p.Count, p.Sides)
}

// Parse parses a dice pool string into a Pool.
// Supported forms: "d20", "2d6", "0d6", "3D4" (case-insensitive, surrounding
// whitespace ignored).
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Pool or a descriptive error wrapping ErrInvalidArgument.
func Parse(expr string) (Pool, error) {
	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Pool{}, fmt.Errorf("%w: empty pool expression", ErrInvalidArgument)
	}

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Pool{}, fmt.Errorf("%w: missing 'd' in pool %q", ErrInvalidArgument, raw)
	}

	// Count defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Pool{}, fmt.Errorf("%w: invalid die count in %q: %v", ErrInvalidArgument, raw, err)
		}
		if count < 0 {
			return Pool{}, fmt.Errorf("%w: invalid die count in %q: must be >= 0", ErrInvalidArgument, raw)
		}
	}

	sides, err := strconv.Atoi(s[dIdx+1:])
	if err != nil {
		return Pool{}, fmt.Errorf("%w: invalid die sides in %q: %v", ErrInvalidArgument, raw, err)
	}
	if sides < 1 {
		return Pool{}, fmt.Errorf("%w: invalid die sides in %q: must be >= 1", ErrInvalidArgument, raw)
	}

	return Pool{Raw: raw, Count: count, Sides: sides}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid pool expression.
func MustParse(expr string) Pool {
	p, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return p
}
