// Package train runs episodic Q-learning on a ql.Env: each episode starts from
// a state drawn from a pool and steps until the reward hits the maximum or
// the per-episode step cap is reached.
package train

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"github.com/sw965/wren/mathx/randx"
	"github.com/sw965/wren/matrix"
	"github.com/sw965/wren/ql"
)

var (
	ErrNilEnv      = errors.New("train: Env must not be nil")
	ErrEmptyStarts = errors.New("train: start pool is empty")
)

type Trainer struct {
	Env    *ql.Env
	Config Config

	// Logger defaults to slog.Default(). Metrics may be nil.
	Logger  *slog.Logger
	Metrics *Metrics
}

type Stats struct {
	Episodes int
	Steps    int
	Solved   int
}

func (t *Trainer) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

// Run trains for Config.Episodes episodes, drawing start states uniformly
// from starts. It checks ctx between episodes.
func (t *Trainer) Run(ctx context.Context, starts []matrix.Matrix) (Stats, error) {
	if t.Env == nil {
		return Stats{}, ErrNilEnv
	}
	if err := t.Env.Validate(); err != nil {
		return Stats{}, err
	}
	if err := t.Config.Validate(); err != nil {
		return Stats{}, err
	}
	if len(starts) == 0 {
		return Stats{}, ErrEmptyStarts
	}

	rng := randx.NewPCG(t.Config.Seed)
	var stats Stats
	for ep := 0; ep < t.Config.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		steps, solved, err := t.episode(starts[rng.IntN(len(starts))], rng)
		stats.Episodes++
		stats.Steps += steps
		if solved {
			stats.Solved++
		}
		t.observe(steps, solved)
		if err != nil {
			return stats, err
		}

		if t.Config.LogEvery > 0 && stats.Episodes%t.Config.LogEvery == 0 {
			t.logger().Info("training progress",
				slog.Int("episodes", stats.Episodes),
				slog.Int("steps", stats.Steps),
				slog.Int("solved", stats.Solved),
			)
		}
	}
	return stats, nil
}

func (t *Trainer) episode(state matrix.Matrix, rng *rand.Rand) (int, bool, error) {
	c := t.Config
	for i := 0; i < c.MaxEpisodeSteps; i++ {
		tr, err := t.Env.Step(c.LearningRate, c.Discount, c.Epsilon, state, rng)
		if errors.Is(err, matrix.ErrOverflow) {
			t.logger().Debug("episode left the int64 range", slog.String("state", state.String()))
			return i, false, nil
		}
		if err != nil {
			return i, false, err
		}
		if tr.Done {
			return i + 1, true, nil
		}
		state = tr.Next
	}
	return c.MaxEpisodeSteps, false, nil
}

func (t *Trainer) observe(steps int, solved bool) {
	if t.Metrics == nil {
		return
	}
	t.Metrics.Episodes.Inc()
	t.Metrics.Steps.Add(float64(steps))
	if solved {
		t.Metrics.Solved.Inc()
	}
	switch l := t.Env.Table.(type) {
	case interface{ Len() int }:
		t.Metrics.TableEntries.Set(float64(l.Len()))
	case interface{ Len() (int, error) }:
		n, err := l.Len()
		if err != nil {
			t.logger().Warn("table size unavailable", slog.Any("error", err))
			return
		}
		t.Metrics.TableEntries.Set(float64(n))
	}
}
