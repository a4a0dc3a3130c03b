// Package app assembles the service and its collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/cohort/internal/config"
	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/JonMunkholm/cohort/internal/narrative"
	"github.com/JonMunkholm/cohort/internal/store"
	"github.com/JonMunkholm/cohort/internal/tabular"
)

// App holds the wired service. Close releases the store.
type App struct {
	Service *core.Service
	Store   store.Store
}

// Close releases backend connections.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// New opens the configured store, creates the narrator when an API key is
// set and builds the service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(ctx, store.Options{
		Driver:   cfg.Store.Driver,
		URL:      cfg.Store.URL,
		Slot:     cfg.Store.Slot,
		MaxConns: cfg.Store.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	slog.Info("store ready", "driver", cfg.Store.Driver, "slot", cfg.Store.Slot)

	var narrator core.Narrator
	if cfg.Narrative.Enabled() {
		g, err := narrative.NewGemini(ctx, narrative.Config{
			APIKey:  cfg.Narrative.APIKey,
			Model:   cfg.Narrative.Model,
			Timeout: cfg.Narrative.Timeout,
		})
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("create narrator: %w", err)
		}
		narrator = g
		slog.Info("narrative insights enabled", "model", g.Model())
	} else {
		slog.Info("narrative insights disabled: no API key")
	}

	svc, err := core.NewService(tabular.NewReader(cfg.Import.MaxFileSize), st, narrator, core.ServiceConfig{
		Markers: core.ColumnMarkers{
			Start:  cfg.Import.StartMarkers,
			Cancel: cfg.Import.CancelMarkers,
		},
		MaxConcurrent:    cfg.Import.MaxConcurrent,
		MaxWait:          cfg.Import.MaxWaitTime,
		StoreTimeout:     cfg.Store.Timeout,
		NarrativeCohorts: cfg.Narrative.Cohorts,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	return &App{Service: svc, Store: st}, nil
}
