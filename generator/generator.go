// Package generator defines the action set: an ordered list of group
// generators followed by their inverses. Applying action i to a state means
// right-multiplying the state by At(i).
package generator

import (
	"errors"
	"fmt"

	"github.com/sw965/wren/matrix"
)

var (
	ErrNoGenerators      = errors.New("generator: at least one generator is required")
	ErrDimensionMismatch = errors.New("generator: generators must share one dimension")
)

// Set is immutable once built and safe to share between goroutines.
type Set struct {
	actions []matrix.Matrix
	k       int
}

// NewSet returns the action set [g0 … gk-1, g0⁻¹ … gk-1⁻¹].
func NewSet(gens ...matrix.Matrix) (Set, error) {
	k := len(gens)
	if k == 0 {
		return Set{}, ErrNoGenerators
	}

	n := gens[0].Dim()
	actions := make([]matrix.Matrix, 2*k)
	for i, g := range gens {
		if g.Dim() != n {
			return Set{}, fmt.Errorf("%w: generator %d is %d×%d, want %d×%d", ErrDimensionMismatch, i, g.Dim(), g.Dim(), n, n)
		}
		inv, err := g.Inverse()
		if err != nil {
			return Set{}, fmt.Errorf("generator %d: %w", i, err)
		}
		actions[i] = g
		actions[k+i] = inv
	}
	return Set{actions: actions, k: k}, nil
}

// SL2Z returns the two-generator set {[[1,k],[0,1]], [[1,0],[k,1]]} and its
// inverses, the standard level-k generators.
func SL2Z(k int64) (Set, error) {
	a, err := matrix.FromRows([]int64{1, k}, []int64{0, 1})
	if err != nil {
		return Set{}, err
	}
	b, err := matrix.FromRows([]int64{1, 0}, []int64{k, 1})
	if err != nil {
		return Set{}, err
	}
	return NewSet(a, b)
}

func (s Set) Len() int {
	return len(s.actions)
}

// Dim is the dimension of every action matrix.
func (s Set) Dim() int {
	if len(s.actions) == 0 {
		return 0
	}
	return s.actions[0].Dim()
}

func (s Set) At(i int) matrix.Matrix {
	return s.actions[i]
}

// Inverse returns the index of the action that undoes action i.
func (s Set) Inverse(i int) int {
	if i < s.k {
		return i + s.k
	}
	return i - s.k
}

// Apply returns state·At(i). The error wraps matrix.ErrOverflow when the
// product leaves the int64 range.
func (s Set) Apply(state matrix.Matrix, i int) (matrix.Matrix, error) {
	return state.TryMul(s.actions[i])
}

// Successors returns state·At(i) for every action, in action order.
func (s Set) Successors(state matrix.Matrix) ([]matrix.Matrix, error) {
	ys := make([]matrix.Matrix, len(s.actions))
	for i, a := range s.actions {
		y, err := state.TryMul(a)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		ys[i] = y
	}
	return ys, nil
}
