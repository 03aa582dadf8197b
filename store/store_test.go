package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the behavior every Store must have on an empty store.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "household")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "household"), ErrNotFound)

	p := forecast.DefaultPlan()
	p.Income = forecast.M(300000, p.Currency)
	require.NoError(t, s.Save(ctx, "household", p))
	require.NoError(t, s.Save(ctx, "alt", forecast.DefaultPlanIn("EUR")))

	got, err := s.Load(ctx, "household")
	require.NoError(t, err)
	assert.True(t, got.Income.Equal(p.Income), "income = %v, want %v", got.Income, p.Income)
	assert.Len(t, got.Portfolio.Funds, 5)

	// Save replaces.
	p.Assumptions.PlanMonths = 12
	require.NoError(t, s.Save(ctx, "household", p))
	got, err = s.Load(ctx, "household")
	require.NoError(t, err)
	assert.Equal(t, 12, got.Assumptions.PlanMonths)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alt", "household"}, names)

	alt, err := s.Load(ctx, "alt")
	require.NoError(t, err)
	assert.Equal(t, "EUR", alt.Currency)

	require.NoError(t, s.Delete(ctx, "alt"))
	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"household"}, names)

	assert.Error(t, s.Save(ctx, "../escape", p))
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plans")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names, "a missing folder is an empty store")

	testStore(t, s)
	assert.FileExists(t, filepath.Join(dir, "household.json"))
	require.NoError(t, s.Close(context.Background()))
}

func TestFileStore_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FORECAST_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FORECAST_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "forecast_test", t.Name(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.collection.Drop(ctx)
		s.Close(ctx)
	})
	testStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("FORECAST_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("FORECAST_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dsn, nil)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `DELETE FROM forecast_plans`)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(ctx) })
	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{Driver: config.DriverFile, Path: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, config.StoreConfig{Driver: "redis"}, nil)
	assert.ErrorContains(t, err, `unknown store driver "redis"`)

	_, err = Open(ctx, config.StoreConfig{Driver: config.DriverFile}, nil)
	assert.Error(t, err, "the file store needs a folder")
}

func TestLoadOrDefault(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p, err := LoadOrDefault(ctx, s, "new", "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "USD", p.Income.Currency())

	p.Income = forecast.M(1, "USD")
	require.NoError(t, s.Save(ctx, "new", p))
	p, err = LoadOrDefault(ctx, s, "new", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "USD", p.Currency)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"default", "home-2025", "a.b_c"} {
		assert.NoError(t, ValidateName(name), name)
	}
	for _, name := range []string{"", "../x", "a/b", ".hidden", "with space"} {
		assert.Error(t, ValidateName(name), name)
	}
}
