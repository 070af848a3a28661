package kv_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sw965/wren/generator"
	"github.com/sw965/wren/matrix"
	"github.com/sw965/wren/ql"
	"github.com/sw965/wren/ql/kv"
	"github.com/sw965/wren/reward"
)

func TestTableLazyDefault(t *testing.T) {
	table, err := kv.Open(kv.InMemoryConfig(), 4)
	require.NoError(t, err)
	defer table.Close()

	got, err := table.Get(matrix.Identity(2).Key())
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 0, 0}, got)

	n, err := table.Len()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTableSetGet(t *testing.T) {
	table, err := kv.Open(kv.InMemoryConfig(), 4)
	require.NoError(t, err)
	defer table.Close()

	k := matrix.MustFromRows([]int64{1, 2}, []int64{0, 1}).Key()
	require.NoError(t, table.Set(k, []float64{0.5, -1.25, 0, 3}))

	got, err := table.Get(k)
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, -1.25, 0, 3}, got)

	require.ErrorIs(t, table.Set(k, []float64{1}), ql.ErrEntrySize)

	n, err := table.Len()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestTableReopenWithOtherActionCount(t *testing.T) {
	dir := t.TempDir()

	table, err := kv.Open(kv.Config{Path: dir}, 4)
	require.NoError(t, err)
	k := matrix.Identity(2).Key()
	require.NoError(t, table.Set(k, []float64{1, 2, 3, 4}))
	require.NoError(t, table.Close())

	_, err = kv.Open(kv.Config{Path: dir}, 6)
	require.ErrorIs(t, err, ql.ErrEntrySize)

	table, err = kv.Open(kv.Config{Path: dir}, 4)
	require.NoError(t, err)
	defer table.Close()
	got, err := table.Get(k)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3, 4}, got)
}

func TestTableBacksEnv(t *testing.T) {
	actions, err := generator.SL2Z(2)
	require.NoError(t, err)

	table, err := kv.Open(kv.InMemoryConfig(), actions.Len())
	require.NoError(t, err)
	defer table.Close()

	src := ql.NewMapTable(actions.Len())
	require.NoError(t, src.Set(matrix.Identity(2).Key(), []float64{0, 0, 1, 0}))
	require.NoError(t, ql.CopyTable(table, src))

	env := &ql.Env{Actions: actions, Table: table, RewardFunc: reward.Identity, MaxReward: reward.Max}
	require.NoError(t, env.Validate())

	rng := rand.New(rand.NewPCG(1, 2))
	a := actions.At(0)
	move, err := env.BestMove(a, rng)
	require.NoError(t, err)
	require.Equal(t, actions.Inverse(0), move)

	steps, err := env.Play(a, ql.DefaultMaxSteps, rng)
	require.NoError(t, err)
	require.Equal(t, 1, steps)
}
