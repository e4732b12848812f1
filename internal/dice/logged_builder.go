package dice

import (
	"fmt"
	"iter"
	"math/big"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dicedist/internal/dist"
)

// Limits bounds the pools a Builder will accept. A zero field is unlimited.
type Limits struct {
	MaxDice     int // largest die count
	MaxSides    int // largest side count
	MaxOutcomes int // largest number of distribution entries
}

// Builder wraps the distribution builders with limit checks and logging.
// Every built distribution is logged at debug level with the pool, the
// ordered flag, the number of outcomes and the total weight.
//
// Builder is safe for concurrent use.
type Builder struct {
	limits Limits
	logger *zap.Logger
}

// NewBuilder creates a Builder enforcing limits and logging to logger.
//
// Precondition: logger must be non-nil.
func NewBuilder(limits Limits, logger *zap.Logger) *Builder {
	return &Builder{limits: limits, logger: logger}
}

// Limits returns the limits b enforces.
func (b *Builder) Limits() Limits { return b.limits }

// Check reports whether pool may be built, without building it.
//
// Postcondition: Returns nil, or an error wrapping ErrInvalidArgument or ErrLimitExceeded.
func (b *Builder) Check(pool Pool, ordered bool) error {
	if err := validate(pool.Count, pool.Sides); err != nil {
		return err
	}
	if b.limits.MaxDice > 0 && pool.Count > b.limits.MaxDice {
		return fmt.Errorf("%w: %s has %d dice, max %d", ErrLimitExceeded, pool, pool.Count, b.limits.MaxDice)
	}
	if b.limits.MaxSides > 0 && pool.Sides > b.limits.MaxSides {
		return fmt.Errorf("%w: %s has %d sides, max %d", ErrLimitExceeded, pool, pool.Sides, b.limits.MaxSides)
	}
	if b.limits.MaxOutcomes <= 0 {
		return nil
	}
	var (
		count *big.Int
		err   error
	)
	if ordered {
		count, err = TupleCount(pool.Count, pool.Sides)
	} else {
		count, err = OutcomeCount(pool.Count, pool.Sides)
	}
	if err != nil {
		return err
	}
	if count.Cmp(big.NewInt(int64(b.limits.MaxOutcomes))) > 0 {
		return fmt.Errorf("%w: %s has %s outcomes, max %d", ErrLimitExceeded, pool, count, b.limits.MaxOutcomes)
	}
	return nil
}

// Build builds the ordered or unordered distribution for pool.
//
// Precondition: pool should come from Parse.
// Postcondition: result logged; returns the distribution or a limit/argument error.
func (b *Builder) Build(pool Pool, ordered bool) (*dist.Distribution, error) {
	if err := b.Check(pool, ordered); err != nil {
		return nil, err
	}
	var (
		d   *dist.Distribution
		err error
	)
	if ordered {
		d, err = Ordered(pool.Count, pool.Sides)
	} else {
		d, err = Unordered(pool.Count, pool.Sides)
	}
	if err != nil {
		return nil, err
	}
	b.logger.Debug("dice distribution",
		zap.Stringer("pool", pool),
		zap.Bool("ordered", ordered),
		zap.Int("outcomes", d.Len()),
		zap.Stringer("total", d.Total()),
	)
	return d, nil
}

// Ordered builds the ordered distribution for pool.
func (b *Builder) Ordered(pool Pool) (*dist.Distribution, error) {
	return b.Build(pool, true)
}

// Unordered builds the unordered distribution for pool.
func (b *Builder) Unordered(pool Pool) (*dist.Distribution, error) {
	return b.Build(pool, false)
}

// Weights checks pool against the unordered limits and returns its lazy
// outcome/weight sequence.
//
// Postcondition: Returns the sequence from Weights, or a limit/argument error.
func (b *Builder) Weights(pool Pool) (iter.Seq2[Outcome, *big.Int], error) {
	if err := b.Check(pool, false); err != nil {
		return nil, err
	}
	seq, err := Weights(pool.Count, pool.Sides)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("dice weights", zap.Stringer("pool", pool))
	return seq, nil
}

// BuildExpr parses expr and builds its distribution.
//
// Precondition: expr must be a valid pool expression.
// Postcondition: Returns a distribution or a parse/limit/build error.
func (b *Builder) BuildExpr(expr string, ordered bool) (*dist.Distribution, error) {
	pool, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return b.Build(pool, ordered)
}
