// Package ql implements tabular Q-learning over a matrix group: a sparse value
// table keyed by state, a one-step lookahead greedy policy, the learning step
// and a greedy rollout evaluator.
//
// The table stores one vector per state with one slot per action. The value of
// a state is the largest slot of its vector; the learning step writes the same
// update to all of them. The policy at state s reads the value of every
// successor s·a, not a separate state-action entry of s.
package ql

import (
	"errors"
)

var (
	ErrNilTable          = errors.New("ql: Table must not be nil")
	ErrNilRewardFunc     = errors.New("ql: RewardFunc must not be nil")
	ErrEmptyActions      = errors.New("ql: action set is empty")
	ErrEntrySize         = errors.New("ql: entry length does not match action count")
	ErrDimensionMismatch = errors.New("ql: state dimension does not match action set")
	ErrNegativeMaxSteps  = errors.New("ql: maxSteps must not be negative")
)

// Unsolved is returned by Play when the identity is not reached within the
// step budget.
const Unsolved = -1

const DefaultMaxSteps = 50

// UpdateQ is the one-step Q-learning rule (1−lr)·q + lr·(reward + γ·nextMaxQ).
func UpdateQ(q, nextMaxQ, reward, lr, discountRate float64) float64 {
	qRatio := 1.0 - lr
	newQ := reward + discountRate*nextMaxQ
	return (qRatio * q) + (lr * newQ)
}
