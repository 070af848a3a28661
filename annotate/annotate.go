// Package annotate labels a dataset of group elements with a trained ql.Env:
// the number of greedy moves to the identity and the recommended first move.
// Unsolved rows are dropped and the rest is split by position into train and
// test tables.
package annotate

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/sw965/omw/parallel"
	"gonum.org/v1/gonum/stat"

	"github.com/sw965/wren/dataset"
	"github.com/sw965/wren/ql"
)

const (
	NumMovesColumn  = "num_moves_Q_learning_needs"
	FirstMoveColumn = "first_move_by_Q_learning"

	DefaultSplitRatio = 0.6
)

var (
	ErrNilEnv   = errors.New("annotate: Env must not be nil")
	ErrNoRngs   = errors.New("annotate: at least one rng is required")
	ErrBadRatio = errors.New("annotate: SplitRatio must be in (0, 1]")
)

type Annotator struct {
	Env *ql.Env

	// Fields name the columns holding the element, row-major.
	// Nil means dataset.DefaultFields.
	Fields []string

	// MaxSteps is the rollout budget. Zero means ql.DefaultMaxSteps; a budget
	// of zero solves nothing, so it is not selectable.
	MaxSteps int

	// SplitRatio places the train/test boundary at floor(n·SplitRatio).
	// Zero means DefaultSplitRatio, so the usable range is (0, 1]. Call Split
	// directly for a ratio of zero.
	SplitRatio float64

	Logger *slog.Logger
}

type Summary struct {
	Rows      int
	Solved    int
	Unsolved  int
	MeanMoves float64
	StdMoves  float64
	Train     int
	Test      int
}

func (a Annotator) fields() []string {
	if a.Fields == nil {
		return dataset.DefaultFields
	}
	return a.Fields
}

func (a Annotator) maxSteps() int {
	if a.MaxSteps == 0 {
		return ql.DefaultMaxSteps
	}
	return a.MaxSteps
}

func (a Annotator) splitRatio() float64 {
	if a.SplitRatio == 0 {
		return DefaultSplitRatio
	}
	return a.SplitRatio
}

func (a Annotator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func (a Annotator) Validate() error {
	if a.Env == nil {
		return ErrNilEnv
	}
	if r := a.splitRatio(); r <= 0 || r > 1 {
		return fmt.Errorf("%w: %v", ErrBadRatio, r)
	}
	if a.MaxSteps < 0 {
		return fmt.Errorf("%w: %d", ql.ErrNegativeMaxSteps, a.MaxSteps)
	}
	return a.Env.Validate()
}

// Annotate appends NumMovesColumn and FirstMoveColumn to every row the greedy
// policy solves within MaxSteps and drops the others. Rows are spread over
// len(rngs) workers, worker i drawing from rngs[i]; with a single rng the
// output is fully determined by the rng's seed.
func (a Annotator) Annotate(t dataset.Table, rngs []*rand.Rand) (dataset.Table, Summary, error) {
	if err := a.Validate(); err != nil {
		return dataset.Table{}, Summary{}, err
	}
	if len(rngs) == 0 {
		return dataset.Table{}, Summary{}, ErrNoRngs
	}
	if err := t.Validate(); err != nil {
		return dataset.Table{}, Summary{}, err
	}

	n := t.Len()
	fields := a.fields()
	maxSteps := a.maxSteps()
	moves := make([]int, n)
	firsts := make([]int, n)

	p := min(len(rngs), max(n, 1))
	err := parallel.For(n, p, func(workerId, idx int) error {
		rng := rngs[workerId]
		state, err := t.Matrix(idx, fields...)
		if err != nil {
			return err
		}
		m, err := a.Env.Play(state, maxSteps, rng)
		if err != nil {
			return fmt.Errorf("row %d: %w", idx, err)
		}
		moves[idx] = m
		if m == ql.Unsolved {
			return nil
		}
		first, err := a.Env.BestMove(state, rng)
		if err != nil {
			return fmt.Errorf("row %d: %w", idx, err)
		}
		firsts[idx] = first
		return nil
	})
	if err != nil {
		return dataset.Table{}, Summary{}, err
	}

	out := dataset.Table{
		Header: append(append([]string(nil), t.Header...), NumMovesColumn, FirstMoveColumn),
		Rows:   make([][]string, 0, n),
	}
	solved := make([]float64, 0, n)
	for i, row := range t.Rows {
		if moves[i] == ql.Unsolved {
			continue
		}
		r := make([]string, 0, len(row)+2)
		r = append(r, row...)
		r = append(r, strconv.Itoa(moves[i]), strconv.Itoa(firsts[i]))
		out.Rows = append(out.Rows, r)
		solved = append(solved, float64(moves[i]))
	}

	summary := Summary{Rows: n, Solved: len(solved), Unsolved: n - len(solved)}
	switch len(solved) {
	case 0:
	case 1:
		summary.MeanMoves = solved[0]
	default:
		summary.MeanMoves, summary.StdMoves = stat.MeanStdDev(solved, nil)
	}
	return out, summary, nil
}

// Split cuts t at bound = floor(n·ratio). Train gets rows [1, bound) and test
// gets rows [bound+1, n): row 0 and the boundary row belong to neither.
func Split(t dataset.Table, ratio float64) (train, test dataset.Table) {
	n := t.Len()
	bound := int(float64(n) * ratio)
	return t.Slice(1, bound), t.Slice(bound+1, n)
}

// Run annotates t and splits the result.
func (a Annotator) Run(t dataset.Table, rngs []*rand.Rand) (train, test dataset.Table, summary Summary, err error) {
	annotated, summary, err := a.Annotate(t, rngs)
	if err != nil {
		return dataset.Table{}, dataset.Table{}, Summary{}, err
	}
	train, test = Split(annotated, a.splitRatio())
	summary.Train, summary.Test = train.Len(), test.Len()

	a.logger().Info("annotated dataset",
		slog.Int("rows", summary.Rows),
		slog.Int("solved", summary.Solved),
		slog.Int("unsolved", summary.Unsolved),
		slog.Float64("mean_moves", summary.MeanMoves),
		slog.Float64("std_moves", summary.StdMoves),
		slog.Int("train", summary.Train),
		slog.Int("test", summary.Test),
	)
	return train, test, summary, nil
}

// RunFiles reads the CSV at in and writes the train and test CSVs.
func (a Annotator) RunFiles(in, trainPath, testPath string, rngs []*rand.Rand) (Summary, error) {
	t, err := dataset.Load(in)
	if err != nil {
		return Summary{}, err
	}
	train, test, summary, err := a.Run(t, rngs)
	if err != nil {
		return Summary{}, err
	}
	if err := dataset.Save(trainPath, train); err != nil {
		return Summary{}, err
	}
	if err := dataset.Save(testPath, test); err != nil {
		return Summary{}, err
	}
	return summary, nil
}
