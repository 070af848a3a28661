package ql

import (
	"fmt"
	"math/rand/v2"

	"github.com/sw965/omw/mathx/randx"
	"gonum.org/v1/gonum/floats"

	"github.com/sw965/wren/generator"
	"github.com/sw965/wren/matrix"
)

type RewardFunc func(matrix.Matrix) float64

// Env ties an action set to a value table. Step is the only method that
// writes the table; SuccessorValues, BestMove and Play only read it.
type Env struct {
	Actions    generator.Set
	Table      Table
	RewardFunc RewardFunc
	MaxReward  float64

	// Tolerance is the entry-wise tolerance of the identity test in Play.
	// Zero means matrix.DefaultTolerance.
	Tolerance float64
}

func (e *Env) Validate() error {
	if e.Actions.Len() == 0 {
		return ErrEmptyActions
	}
	if e.Table == nil {
		return ErrNilTable
	}
	if e.RewardFunc == nil {
		return ErrNilRewardFunc
	}
	if c, ok := e.Table.(interface{ ActionCount() int }); ok && c.ActionCount() != e.Actions.Len() {
		return fmt.Errorf("%w: table holds %d values per entry, action set has %d", ErrEntrySize, c.ActionCount(), e.Actions.Len())
	}
	return nil
}

func (e *Env) tolerance() float64 {
	if e.Tolerance == 0 {
		return matrix.DefaultTolerance
	}
	return e.Tolerance
}

func (e *Env) checkDim(state matrix.Matrix) error {
	if state.Dim() != e.Actions.Dim() {
		return fmt.Errorf("%w: state is %d×%d, actions are %d×%d", ErrDimensionMismatch, state.Dim(), state.Dim(), e.Actions.Dim(), e.Actions.Dim())
	}
	return nil
}

// get reads an entry and checks it against the action count.
func (e *Env) get(k matrix.Key) ([]float64, error) {
	v, err := e.Table.Get(k)
	if err != nil {
		return nil, err
	}
	if len(v) != e.Actions.Len() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEntrySize, len(v), e.Actions.Len())
	}
	return v, nil
}

// Value is the value of state: the largest number stored in its entry.
// Step writes the same update to every slot, so for a table it trained the
// slots agree and any of them is the value.
func (e *Env) Value(state matrix.Matrix) (float64, error) {
	if err := e.checkDim(state); err != nil {
		return 0, err
	}
	v, err := e.get(state.Key())
	if err != nil {
		return 0, err
	}
	return floats.Max(v), nil
}

// SuccessorValues returns Value(state·At(a)) for every action a.
func (e *Env) SuccessorValues(state matrix.Matrix) ([]float64, error) {
	if err := e.checkDim(state); err != nil {
		return nil, err
	}
	succ, err := e.Actions.Successors(state)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(succ))
	for a, next := range succ {
		v, err := e.get(next.Key())
		if err != nil {
			return nil, err
		}
		vals[a] = floats.Max(v)
	}
	return vals, nil
}

// BestMove is the greedy action for state. When every successor value is
// exactly zero nothing is known yet and the action is drawn uniformly, so the
// first action gets no preference. Otherwise ties go to the lowest index.
func (e *Env) BestMove(state matrix.Matrix, rng *rand.Rand) (int, error) {
	vals, err := e.SuccessorValues(state)
	if err != nil {
		return 0, err
	}
	if isZero(vals) {
		return e.randomMove(rng)
	}
	return floats.MaxIdx(vals), nil
}

func (e *Env) EpsilonGreedy(epsilon float64, state matrix.Matrix, rng *rand.Rand) (int, error) {
	if rng.Float64() < epsilon {
		if err := e.checkDim(state); err != nil {
			return 0, err
		}
		return e.randomMove(rng)
	}
	return e.BestMove(state, rng)
}

func (e *Env) randomMove(rng *rand.Rand) (int, error) {
	moves := make([]int, e.Actions.Len())
	for i := range moves {
		moves[i] = i
	}
	return randx.Choice(moves, rng)
}

func isZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
