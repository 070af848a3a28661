package train_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/sw965/wren/generator"
	"github.com/sw965/wren/mathx/randx"
	"github.com/sw965/wren/matrix"
	"github.com/sw965/wren/ql"
	"github.com/sw965/wren/ql/kv"
	"github.com/sw965/wren/reward"
	"github.com/sw965/wren/train"
)

func newEnv(t *testing.T) (*ql.Env, generator.Set) {
	t.Helper()
	actions, err := generator.SL2Z(2)
	require.NoError(t, err)
	return &ql.Env{
		Actions:    actions,
		Table:      ql.NewMapTable(actions.Len()),
		RewardFunc: reward.Identity,
		MaxReward:  reward.Max,
	}, actions
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseConfig(t *testing.T) {
	cfg, err := train.ParseConfig([]byte("learning_rate: 0.25\nepisodes: 50\nseed: 9\n"))
	require.NoError(t, err)

	want := train.DefaultConfig()
	want.LearningRate = 0.25
	want.Episodes = 50
	want.Seed = 9
	require.Equal(t, want, cfg)
}

func TestParseConfigInvalid(t *testing.T) {
	for _, in := range []string{
		"learning_rate: 0\n",
		"discount: 1.5\n",
		"epsilon: -0.1\n",
		"max_episode_steps: 0\n",
		"episodes: [1, 2]\n",
	} {
		_, err := train.ParseConfig([]byte(in))
		require.ErrorIs(t, err, train.ErrInvalidConfig, in)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epsilon: 0.1\n"), 0600))

	cfg, err := train.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 0.1, cfg.Epsilon)
	require.Equal(t, train.DefaultConfig().Discount, cfg.Discount)
}

func TestRunErrors(t *testing.T) {
	env, _ := newEnv(t)

	_, err := (&train.Trainer{Config: train.DefaultConfig()}).Run(context.Background(), []matrix.Matrix{matrix.Identity(2)})
	require.ErrorIs(t, err, train.ErrNilEnv)

	_, err = (&train.Trainer{Env: env, Config: train.DefaultConfig()}).Run(context.Background(), nil)
	require.ErrorIs(t, err, train.ErrEmptyStarts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&train.Trainer{Env: env, Config: train.DefaultConfig(), Logger: quietLogger()}).Run(ctx, []matrix.Matrix{matrix.Identity(2)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunMetrics(t *testing.T) {
	env, actions := newEnv(t)
	reg := prometheus.NewRegistry()
	metrics := train.NewMetrics(reg)

	cfg := train.DefaultConfig()
	cfg.Episodes = 200
	trainer := &train.Trainer{Env: env, Config: cfg, Logger: quietLogger(), Metrics: metrics}

	stats, err := trainer.Run(context.Background(), generator.NewBall(actions, 1).Sphere(1))
	require.NoError(t, err)
	require.Equal(t, 200, stats.Episodes)
	require.Positive(t, stats.Solved)

	require.Equal(t, float64(stats.Episodes), testutil.ToFloat64(metrics.Episodes))
	require.Equal(t, float64(stats.Steps), testutil.ToFloat64(metrics.Steps))
	require.Equal(t, float64(stats.Solved), testutil.ToFloat64(metrics.Solved))
	require.Equal(t, float64(env.Table.(*ql.MapTable).Len()), testutil.ToFloat64(metrics.TableEntries))
}

func TestRunMetricsPersistentTable(t *testing.T) {
	env, actions := newEnv(t)
	table, err := kv.Open(kv.InMemoryConfig(), actions.Len())
	require.NoError(t, err)
	defer table.Close()
	env.Table = table

	reg := prometheus.NewRegistry()
	metrics := train.NewMetrics(reg)
	cfg := train.DefaultConfig()
	cfg.Episodes = 50
	trainer := &train.Trainer{Env: env, Config: cfg, Logger: quietLogger(), Metrics: metrics}

	_, err = trainer.Run(context.Background(), generator.NewBall(actions, 1).Sphere(1))
	require.NoError(t, err)

	n, err := table.Len()
	require.NoError(t, err)
	require.Positive(t, n)
	require.Equal(t, float64(n), testutil.ToFloat64(metrics.TableEntries))
}

// An episode whose start leaves the int64 range on the first move ends
// unsolved instead of failing the run.
func TestRunOverflowEndsEpisode(t *testing.T) {
	env, _ := newEnv(t)
	huge := matrix.MustFromRows([]int64{math.MaxInt64, 0}, []int64{0, 1})

	cfg := train.DefaultConfig()
	cfg.Episodes = 5
	stats, err := (&train.Trainer{Env: env, Config: cfg, Logger: quietLogger()}).Run(context.Background(), []matrix.Matrix{huge})
	require.NoError(t, err)
	require.Equal(t, 5, stats.Episodes)
	require.Zero(t, stats.Solved)
	require.Zero(t, stats.Steps)
}

// Training on every element within three moves of the identity drives the
// greedy rollout to the true word length of each of them.
func TestRunConverges(t *testing.T) {
	env, actions := newEnv(t)
	ball := generator.NewBall(actions, 3)

	var starts []matrix.Matrix
	for _, m := range ball.Elements {
		if ball.Distance[m.Key()] > 0 {
			starts = append(starts, m)
		}
	}

	cfg := train.DefaultConfig()
	cfg.Episodes = 30000
	cfg.MaxEpisodeSteps = 12
	cfg.Seed = 2024
	trainer := &train.Trainer{Env: env, Config: cfg, Logger: quietLogger()}
	_, err := trainer.Run(context.Background(), starts)
	require.NoError(t, err)

	rng := randx.NewPCG(1)
	for _, m := range ball.Elements {
		got, err := env.Play(m, ql.DefaultMaxSteps, rng)
		require.NoError(t, err)
		require.Equal(t, ball.Distance[m.Key()], got, "state %v", m)
	}

	a := actions.At(0)
	move, err := env.BestMove(a, rng)
	require.NoError(t, err)
	require.Equal(t, actions.Inverse(0), move)
}
