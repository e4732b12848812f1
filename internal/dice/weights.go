package dice

import (
	"fmt"
	"iter"
	"math"
	"math/big"

	"gonum.org/v1/gonum/stat/combin"
)

func validate(n, m int) error {
	if n < 0 {
		return fmt.Errorf("%w: die count %d must be >= 0", ErrInvalidArgument, n)
	}
	if m < 1 {
		return fmt.Errorf("%w: side count %d must be >= 1", ErrInvalidArgument, m)
	}
	return nil
}

// OutcomeCount returns the number of unordered outcomes of n m-sided dice,
// the multiset coefficient C(m+n-1, n).
//
// Precondition: n >= 0, m >= 1.
func OutcomeCount(n, m int) (*big.Int, error) {
	if err := validate(n, m); err != nil {
		return nil, err
	}
	return new(big.Int).Binomial(int64(m+n-1), int64(n)), nil
}

// TupleCount returns the number of ordered outcomes of n m-sided dice, m^n.
//
// Precondition: n >= 0, m >= 1.
func TupleCount(n, m int) (*big.Int, error) {
	if err := validate(n, m); err != nil {
		return nil, err
	}
	return new(big.Int).Exp(big.NewInt(int64(m)), big.NewInt(int64(n)), nil), nil
}

// Weights enumerates every unordered outcome of n m-sided dice together with
// its weight, the number of ordered rolls that sort to it.
//
// Outcomes are non-decreasing and yielded in lexicographic order, each exactly
// once. The returned sequence is lazy and may be ranged over any number of
// times; every pass yields identical pairs. Yielded outcomes and weights are
// freshly allocated and owned by the caller.
//
// n == 0 yields the single empty outcome with weight 1.
//
// Precondition: n >= 0, m >= 1.
// Postcondition: the sequence has OutcomeCount(n, m) pairs whose weights sum to TupleCount(n, m).
func Weights(n, m int) (iter.Seq2[Outcome, *big.Int], error) {
	count, err := OutcomeCount(n, m)
	if err != nil {
		return nil, err
	}
	// combin.Binomial multiplies before it divides, so the largest
	// intermediate it reaches is count*(m+n-1).
	top := m + n - 1
	bound := new(big.Int).Mul(count, big.NewInt(int64(max(top, 1))))
	if bound.Cmp(big.NewInt(math.MaxInt)) > 0 {
		return nil, fmt.Errorf("%w: %s outcomes for %dd%d", ErrOverflow, count, n, m)
	}

	permutations := new(big.Int).MulRange(1, int64(n))

	return func(yield func(Outcome, *big.Int) bool) {
		// Stars and bars: a combination c_0 < c_1 < ... of n slots out of
		// m+n-1 maps to the multiset value_i = c_i - i + 1.
		gen := combin.NewCombinationGenerator(top, n)
		comb := make([]int, n)
		for gen.Next() {
			gen.Combination(comb)
			outcome := make(Outcome, n)
			for i, c := range comb {
				outcome[i] = c - i + 1
			}
			if !yield(outcome, weigh(outcome, permutations)) {
				return
			}
		}
	}, nil
}

// weigh divides n! by the position within the current run at every repeated
// value. Dividing successively by 2, 3, ..., k divides by k!, and every
// intermediate quotient is itself a multinomial coefficient, so the integer
// division is exact.
func weigh(outcome Outcome, permutations *big.Int) *big.Int {
	weight := new(big.Int).Set(permutations)
	var divisor big.Int
	runLen := 0
	for i, v := range outcome {
		if i == 0 || v != outcome[i-1] {
			runLen = 0
		}
		runLen++
		if runLen > 1 {
			weight.Quo(weight, divisor.SetInt64(int64(runLen)))
		}
	}
	return weight
}

// Multinomial returns len(outcome)! divided by the factorial of the
// multiplicity of every distinct value in outcome. Unlike the incremental
// weighting used by Weights it does not require outcome to be sorted.
func Multinomial(outcome Outcome) *big.Int {
	counts := make(map[int]int64, len(outcome))
	for _, v := range outcome {
		counts[v]++
	}
	result := new(big.Int).MulRange(1, int64(len(outcome)))
	var f big.Int
	for _, k := range counts {
		result.Quo(result, f.MulRange(1, k))
	}
	return result
}
