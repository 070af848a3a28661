// Package dataset holds tabular records of group elements, as read from and
// written to CSV, and decodes rows into matrices.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sw965/wren/matrix"
)

var (
	ErrColumnNotFound = errors.New("dataset: column not found")
	ErrRowLength      = errors.New("dataset: row length does not match header")
	ErrNotInteger     = errors.New("dataset: cell is not an integer")
)

// DefaultFields are the columns holding a 2×2 element in row-major order.
var DefaultFields = []string{"val1", "val2", "val3", "val4"}

type Table struct {
	Header []string
	Rows   [][]string
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) Column(name string) (int, error) {
	i := slices.Index(t.Header, name)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return i, nil
}

func (t Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrRowLength, i, len(row), len(t.Header))
		}
	}
	return nil
}

// Slice returns rows [i, j) sharing t's header. Out-of-range bounds are
// clamped, and an empty range gives an empty table.
func (t Table) Slice(i, j int) Table {
	n := len(t.Rows)
	i = min(max(i, 0), n)
	j = min(max(j, i), n)
	rows := make([][]string, 0, j-i)
	for _, row := range t.Rows[i:j] {
		rows = append(rows, slices.Clone(row))
	}
	return Table{Header: slices.Clone(t.Header), Rows: rows}
}

// Matrix decodes row i into a square matrix from the named integer fields,
// read in row-major order. len(fields) must be a perfect square.
func (t Table) Matrix(i int, fields ...string) (matrix.Matrix, error) {
	n := int(math.Round(math.Sqrt(float64(len(fields)))))
	if n*n != len(fields) {
		return matrix.Matrix{}, fmt.Errorf("%w: %d fields", matrix.ErrNotSquare, len(fields))
	}

	row := t.Rows[i]
	data := make([]int64, len(fields))
	for j, f := range fields {
		c, err := t.Column(f)
		if err != nil {
			return matrix.Matrix{}, err
		}
		v, err := ParseInt(row[c])
		if err != nil {
			return matrix.Matrix{}, fmt.Errorf("row %d, column %q: %w", i, f, err)
		}
		data[j] = v
	}
	return matrix.New(n, data...)
}

// ParseInt accepts plain integers and floats with no fractional part ("3.0").
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, s)
	}
	return int64(f), nil
}
