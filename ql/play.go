package ql

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/sw965/wren/matrix"
)

// Play follows the greedy policy from state and returns the number of actions
// taken before the identity was reached, or Unsolved if that did not happen
// within maxSteps checks. A rollout that leaves the int64 range cannot come
// back to the identity in a representable way and also yields Unsolved. It
// never writes the table. rng is only consumed when BestMove has to break a
// cold start.
func (e *Env) Play(state matrix.Matrix, maxSteps int, rng *rand.Rand) (int, error) {
	if maxSteps < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeMaxSteps, maxSteps)
	}
	if err := e.checkDim(state); err != nil {
		return 0, err
	}

	tol := e.tolerance()
	for i := 0; i < maxSteps; i++ {
		if state.IsIdentity(tol) {
			return i, nil
		}
		a, err := e.BestMove(state, rng)
		if errors.Is(err, matrix.ErrOverflow) {
			return Unsolved, nil
		}
		if err != nil {
			return 0, err
		}
		state, err = e.Actions.Apply(state, a)
		if errors.Is(err, matrix.ErrOverflow) {
			return Unsolved, nil
		}
		if err != nil {
			return 0, err
		}
	}
	return Unsolved, nil
}
