// Package matrix provides the immutable square integer matrices used as states
// and actions, together with the canonical key codec for the value table.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotSquare     = errors.New("matrix: data length is not a perfect square")
	ErrEmpty         = errors.New("matrix: dimension must be positive")
	ErrTooLarge      = errors.New("matrix: dimension must fit in one byte")
	ErrNotUnimodular = errors.New("matrix: no integer inverse")
	ErrOverflow      = errors.New("matrix: product overflows int64")
)

// DefaultTolerance is the element-wise tolerance of IsIdentity when callers
// have no reason to pick another one.
const DefaultTolerance = 1e-8

// Matrix is an n×n integer matrix stored row-major. The zero value is not
// usable; build one with New, FromRows or Identity. Every operation returns a
// new Matrix and never writes to its receiver.
type Matrix struct {
	n    int
	data []int64
}

func New(n int, data ...int64) (Matrix, error) {
	if n <= 0 {
		return Matrix{}, ErrEmpty
	}
	if n > 255 {
		return Matrix{}, ErrTooLarge
	}
	if len(data) != n*n {
		return Matrix{}, fmt.Errorf("%w: n=%d len=%d", ErrNotSquare, n, len(data))
	}
	return Matrix{n: n, data: append([]int64(nil), data...)}, nil
}

// FromRows builds a matrix from its rows. All rows must have len(rows) entries.
func FromRows(rows ...[]int64) (Matrix, error) {
	n := len(rows)
	data := make([]int64, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return Matrix{}, fmt.Errorf("%w: row %d has %d entries, want %d", ErrNotSquare, i, len(row), n)
		}
		data = append(data, row...)
	}
	return New(n, data...)
}

// MustFromRows is like FromRows but panics on malformed input. It is meant for
// literals in configuration and tests.
func MustFromRows(rows ...[]int64) Matrix {
	m, err := FromRows(rows...)
	if err != nil {
		panic(err)
	}
	return m
}

func Identity(n int) Matrix {
	data := make([]int64, n*n)
	for i := 0; i < n; i++ {
		data[i*n+i] = 1
	}
	return Matrix{n: n, data: data}
}

func (m Matrix) Dim() int {
	return m.n
}

func (m Matrix) At(i, j int) int64 {
	return m.data[i*m.n+j]
}

// Entries returns a copy of the row-major entries.
func (m Matrix) Entries() []int64 {
	return append([]int64(nil), m.data...)
}

// Mul returns the product m·o. It panics if the dimensions differ, as gonum's
// mat does on a shape mismatch, or if an entry overflows int64. Use TryMul
// where the operands are not known to stay small.
func (m Matrix) Mul(o Matrix) Matrix {
	out, err := m.TryMul(o)
	if err != nil {
		panic(err.Error())
	}
	return out
}

// TryMul is Mul with overflow reported as ErrOverflow instead of a panic.
func (m Matrix) TryMul(o Matrix) (Matrix, error) {
	if m.n != o.n {
		return Matrix{}, fmt.Errorf("matrix: dimension mismatch %d != %d", m.n, o.n)
	}
	n := m.n
	data := make([]int64, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			a := m.data[i*n+k]
			if a == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				p, ok := mulInt64(a, o.data[k*n+j])
				if !ok {
					return Matrix{}, fmt.Errorf("%w: %v·%v", ErrOverflow, m, o)
				}
				sum, ok := addInt64(data[i*n+j], p)
				if !ok {
					return Matrix{}, fmt.Errorf("%w: %v·%v", ErrOverflow, m, o)
				}
				data[i*n+j] = sum
			}
		}
	}
	return Matrix{n: n, data: data}, nil
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (c < 0) != ((a < 0) != (b < 0)) || c/b != a {
		return 0, false
	}
	return c, true
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (a > 0 && b > 0 && c < 0) || (a < 0 && b < 0 && c >= 0) {
		return 0, false
	}
	return c, true
}

// Equal reports exact entry-wise equality.
func (m Matrix) Equal(o Matrix) bool {
	if m.n != o.n {
		return false
	}
	for i, v := range m.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}

// Dense converts m to a gonum matrix.
func (m Matrix) Dense() *mat.Dense {
	data := make([]float64, len(m.data))
	for i, v := range m.data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.n, m.n, data)
}

// IsIdentity reports whether every entry of m is within tol of the identity.
func (m Matrix) IsIdentity(tol float64) bool {
	id := mat.NewDiagDense(m.n, nil)
	for i := 0; i < m.n; i++ {
		id.SetDiag(i, 1)
	}
	return mat.EqualApprox(m.Dense(), id, tol)
}

// Inverse returns the integer inverse of m. The inverse is computed in floating
// point, rounded, and then checked exactly, so a matrix whose inverse is not
// integral yields ErrNotUnimodular.
func (m Matrix) Inverse() (Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.Dense()); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Matrix{}, fmt.Errorf("%w: %v", ErrNotUnimodular, err)
		}
	}

	data := make([]int64, m.n*m.n)
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			data[i*m.n+j] = int64(math.Round(inv.At(i, j)))
		}
	}
	out := Matrix{n: m.n, data: data}
	if !m.Mul(out).Equal(Identity(m.n)) {
		return Matrix{}, fmt.Errorf("%w: %v", ErrNotUnimodular, m)
	}
	return out, nil
}

func (m Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('[')
		for j := 0; j < m.n; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d", m.data[i*m.n+j])
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
