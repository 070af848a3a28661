// Package reward holds reward functions for the learning step. Each returns
// Max exactly when the state counts as solved, so it can be paired with
// ql.Env.MaxReward.
package reward

import (
	"github.com/sw965/wren/matrix"
)

const Max = 1.0

// Identity pays Max on the exact identity and 0 elsewhere. On integer states
// it agrees with the rollout's tolerance check.
func Identity(m matrix.Matrix) float64 {
	if m.Equal(matrix.Identity(m.Dim())) {
		return Max
	}
	return 0
}

// Mod2Identity pays Max when m is congruent to the identity modulo 2:
// odd diagonal and even off-diagonal entries.
func Mod2Identity(m matrix.Matrix) float64 {
	n := m.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			odd := m.At(i, j)%2 != 0
			if odd != (i == j) {
				return 0
			}
		}
	}
	return Max
}
