package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/cohort/internal/config"
	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryStore(t *testing.T) {
	cfg, err := config.LoadFrom(config.MapLookup(map[string]string{
		"IMPORT_START_MARKERS": "começou",
	}))
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	csv := "Cliente,Plano começou em,Plano cancelou em\nA,01/02/2024,\n"
	imp, err := a.Service.Import(context.Background(), "subs.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "Plano começou em", imp.Result.Start.Column)
	assert.Equal(t, core.ResolvedByName, imp.Result.Start.Method)

	_, err = a.Service.Narrate(context.Background(), imp.Stats())
	assert.ErrorIs(t, err, core.ErrNarrativeUnavailable)

	last, err := a.Service.LoadLast(context.Background())
	require.NoError(t, err)
	assert.Equal(t, imp.ID, last.ID)
}

func TestNew_SQLiteStoreSurvivesRestart(t *testing.T) {
	cfg, err := config.LoadFrom(config.MapLookup(map[string]string{
		"STORE_DRIVER": "sqlite",
		"STORE_URL":    filepath.Join(t.TempDir(), "cohort.db"),
	}))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := New(ctx, cfg)
	require.NoError(t, err)
	csv := "Cliente,Plano iniciou em,Plano cancelou em\nA,01/02/2024,\n"
	imp, err := first.Service.Import(ctx, "subs.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg)
	require.NoError(t, err)
	defer second.Close()

	last, err := second.Service.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, imp.ID, last.ID)
	assert.Equal(t, imp.Stats().Cohorts[0].Cohort, last.Stats().Cohorts[0].Cohort)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg, err := config.LoadFrom(config.MapLookup(nil))
	require.NoError(t, err)
	cfg.Store.Driver = "cassandra"

	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
