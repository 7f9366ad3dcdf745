package results

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/photon-entanglement/internal/domain/run"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(t.TempDir())
	rec, err := repo.Load(context.Background(), filepath.Join(repo.Dir(), "missing.json"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, rec)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns the same record.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "nested", "results"))

	want := run.NewRecord("evolve", &run.Actor{Hostname: "lab-node-3", Username: "physicist"}, true)
	want.Timestamp = time.Now().UTC().Truncate(time.Second)
	want.SetParameter("coupling", 5e-6)
	want.SetParameter("convention", "dispersive")
	want.SetResult("max_entropy", 0.539)
	want.SetResult("period_defined", false)
	want.SetResult("entropy", []float64{0, 0.1, math.NaN()})
	want.SetResult("map", [][]float64{{1, 2}, {3, math.Inf(1)}})
	want.SetResult("steps", 42)

	path, err := repo.Save(context.Background(), want)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(repo.Dir(), want.Filename()), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())

	got, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Name, got.Name)
	require.True(t, want.Timestamp.Equal(got.Timestamp))
	require.Equal(t, want.Actor, got.Actor)
	require.True(t, got.QuickMode)
	require.Equal(t, "dispersive", got.Parameters["convention"])
	require.InDelta(t, 5e-6, got.Parameters["coupling"], 0)
	require.InDelta(t, 0.539, got.Results["max_entropy"], 0)
	require.Equal(t, false, got.Results["period_defined"])
	require.InDelta(t, 42, got.Results["steps"], 0)
	require.Equal(t, []any{0.0, 0.1, nil}, got.Results["entropy"])
	require.Equal(t, []any{[]any{1.0, 2.0}, []any{3.0, nil}}, got.Results["map"])
	require.Equal(t, want.ResultKeys(), got.ResultKeys())

	paths, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{path}, paths)
}

// TestFileRepository_NilActor keeps a missing actor missing.
func TestFileRepository_NilActor(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(t.TempDir())

	path, err := repo.Save(context.Background(), run.NewRecord("scan", nil, false))
	require.NoError(t, err)

	got, err := repo.Load(context.Background(), path)
	require.NoError(t, err)
	require.Nil(t, got.Actor)
	require.Empty(t, got.Results)

	_, err = repo.Save(context.Background(), nil)
	require.ErrorIs(t, err, errRecordIsNotSet)
}

// TestFileRepository_Corrupt reports decode failures.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(t.TempDir())
	path := filepath.Join(repo.Dir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := repo.Load(context.Background(), path)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
