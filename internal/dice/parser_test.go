package dice_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dicedist/internal/dice"
)

// TestParse_Valid verifies accepted notations and their parsed counts and sides.
func TestParse_Valid(t *testing.T) {
	cases := []struct {
		in    string
		count int
		sides int
	}{
		{"2d6", 2, 6},
		{"d20", 1, 20},
		{"0d6", 0, 6},
		{"3D4", 3, 4},
		{" 5d1 ", 5, 1},
	}
	for _, tc := range cases {
		p, err := dice.Parse(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.count, p.Count, "input %q", tc.in)
		assert.Equal(t, tc.sides, p.Sides, "input %q", tc.in)
		assert.Equal(t, tc.in, p.Raw)
	}
}

// TestParse_Invalid verifies malformed notations wrap ErrInvalidArgument.
func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "6", "xd6", "2d", "2dx", "2d0", "-1d6", "2d-6", "2d6+3"} {
		_, err := dice.Parse(in)
		assert.ErrorIs(t, err, dice.ErrInvalidArgument, "input %q", in)
	}
}

// TestPool_String verifies a pool renders as NdM.
func TestPool_String(t *testing.T) {
	assert.Equal(t, "1d20", dice.MustParse("d20").String())
}

// TestMustParse_Panics verifies MustParse panics on malformed notation.
func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("nope") })
}

// TestParse_RoundTrip_Property verifies that any rendered pool parses back to
// the same count and sides.
func TestParse_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(0, 1000).Draw(rt, "count")
		sides := rapid.IntRange(1, 1000).Draw(rt, "sides")

		p, err := dice.Parse(fmt.Sprintf("%dd%d", count, sides))
		require.NoError(rt, err)
		assert.Equal(rt, count, p.Count)
		assert.Equal(rt, sides, p.Sides)
	})
}
