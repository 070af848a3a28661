package ql

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/sw965/wren/matrix"
)

// Transition is the outcome of one learning step.
type Transition struct {
	Action int
	Next   matrix.Matrix
	Reward float64
	Done   bool
}

// Step takes one epsilon-greedy action from state and updates the value of
// the resulting state. The bootstrap target looks one more step ahead, taking
// the best successor value of the new state. Every slot of the new state's
// entry receives the update, so the value is the same whichever action led
// there. Done is the exact test Reward == MaxReward; resetting the episode is
// up to the caller. A move that overflows int64 returns an error wrapping
// matrix.ErrOverflow and leaves the table untouched.
func (e *Env) Step(lr, discount, epsilon float64, state matrix.Matrix, rng *rand.Rand) (Transition, error) {
	action, err := e.EpsilonGreedy(epsilon, state, rng)
	if err != nil {
		return Transition{}, err
	}

	next, err := e.Actions.Apply(state, action)
	if err != nil {
		return Transition{}, err
	}
	reward := e.RewardFunc(next)
	done := reward == e.MaxReward

	succ, err := e.SuccessorValues(next)
	if err != nil {
		return Transition{}, err
	}

	k := next.Key()
	entry, err := e.get(k)
	if err != nil {
		return Transition{}, err
	}
	target := floats.Max(succ)
	for i := range entry {
		entry[i] = UpdateQ(entry[i], target, reward, lr, discount)
	}
	if err := e.Table.Set(k, entry); err != nil {
		return Transition{}, err
	}

	return Transition{Action: action, Next: next, Reward: reward, Done: done}, nil
}
