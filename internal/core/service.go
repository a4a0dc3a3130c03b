package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/cohort/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RowReader decodes an uploaded file into raw rows.
type RowReader interface {
	ReadRows(ctx context.Context, fileName string, r io.Reader) ([]RawRow, error)
}

// ImportStore persists the most recent import in a single slot.
// Implementations are last-write-wins; LoadLastImport returns ErrNoImport
// when the slot is empty.
type ImportStore interface {
	SaveLastImport(ctx context.Context, snap Snapshot) error
	LoadLastImport(ctx context.Context) (*Snapshot, error)
}

// Narrator writes prose about a textual matrix summary.
type Narrator interface {
	Narrate(ctx context.Context, summary string) (string, error)
}

// DefaultNarrativeCohorts is how many of the latest cohorts are summarized.
const DefaultNarrativeCohorts = 6

// DefaultStoreTimeout bounds a single store call.
const DefaultStoreTimeout = 10 * time.Second

// ServiceConfig configures a Service. Zero values select defaults.
type ServiceConfig struct {
	Markers          ColumnMarkers
	MaxConcurrent    int
	MaxWait          time.Duration
	StoreTimeout     time.Duration
	NarrativeCohorts int
	Clock            func() time.Time
}

// Import is a computed import held by the service.
type Import struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	ImportedAt time.Time `json:"importedAt"`
	Rows       []RawRow  `json:"-"`
	Result     *Result   `json:"-"`

	// PersistError is set when the matrix was computed but saving the
	// snapshot failed. The import is still usable.
	PersistError string `json:"persistError,omitempty"`
}

// Stats is a shortcut for Result.Stats.
func (imp *Import) Stats() CohortStats {
	if imp == nil || imp.Result == nil {
		return CohortStats{MaxMonths: MaxMonths}
	}
	return imp.Result.Stats
}

// Service wires the pipeline to its collaborators.
type Service struct {
	reader   RowReader
	store    ImportStore
	narrator Narrator
	limiter  *ImportLimiter
	cfg      ServiceConfig

	mu      sync.RWMutex
	current *Import

	// restores collapses concurrent store reads into one.
	restores singleflight.Group
}

// NewService creates a Service. store and narrator may be nil: without a
// store imports are not persisted, without a narrator Narrate returns
// ErrNarrativeUnavailable.
func NewService(reader RowReader, store ImportStore, narrator Narrator, cfg ServiceConfig) (*Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: reader is nil", ErrInvalidArgument)
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.NarrativeCohorts <= 0 {
		cfg.NarrativeCohorts = DefaultNarrativeCohorts
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Service{
		reader:   reader,
		store:    store,
		narrator: narrator,
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:      cfg,
	}, nil
}

// Import reads a file, computes its matrix and persists the raw rows.
// Persistence failures are logged and recorded on the Import; they never
// discard a computed matrix.
func (s *Service) Import(ctx context.Context, fileName string, r io.Reader) (*Import, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	logger := logging.WithImport(ctx, "", fileName)

	rows, err := s.reader.ReadRows(ctx, fileName, r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read %s: %w", fileName, ErrEmptyDataset)
	}

	imp := &Import{
		ID:         uuid.New().String(),
		FileName:   fileName,
		ImportedAt: s.cfg.Clock(),
		Rows:       rows,
	}
	logger = logging.WithImport(ctx, imp.ID, fileName)

	if err := s.compute(imp); err != nil {
		logger.Warn("import produced no cohorts", "rows", len(rows), "error", err)
		return nil, err
	}

	logger.Info("import computed",
		"rows", imp.Result.TotalRows,
		"excluded", imp.Result.Excluded,
		"cohorts", len(imp.Result.Stats.Cohorts),
		"start_column", imp.Result.Start.Column,
		"start_resolved_by", imp.Result.Start.Method.String(),
	)

	s.setCurrent(imp)

	if err := s.persist(ctx, imp); err != nil {
		imp.PersistError = err.Error()
		logger.Error("failed to persist import", "error", err)
	}

	return imp, nil
}

// LoadLast fetches the stored import and recomputes it against the current
// clock. The recomputed import becomes the current one. Concurrent callers
// share a single store read.
func (s *Service) LoadLast(ctx context.Context) (*Import, error) {
	if s.store == nil {
		return nil, ErrNoImport
	}

	// The shared load must not die with whichever caller started it; each
	// caller still stops waiting when its own context ends.
	ch := s.restores.DoChan(LastImportKey, func() (any, error) {
		return s.loadLast(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Import), nil
	}
}

func (s *Service) loadLast(ctx context.Context) (*Import, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	snap, err := s.store.LoadLastImport(storeCtx)
	if err != nil {
		return nil, fmt.Errorf("load last import: %w", err)
	}
	if snap == nil || len(snap.Rows) == 0 {
		return nil, ErrNoImport
	}

	imp := &Import{
		ID:         snap.ID,
		FileName:   snap.FileName,
		ImportedAt: snap.ImportedAt,
		Rows:       snap.Rows,
	}
	if err := s.compute(imp); err != nil {
		return nil, err
	}

	s.setCurrent(imp)
	logging.WithImport(ctx, imp.ID, imp.FileName).Info("last import restored",
		"cohorts", len(imp.Result.Stats.Cohorts),
	)
	return imp, nil
}

// Current returns the most recent import held in memory, loading it from
// the store on first use.
func (s *Service) Current(ctx context.Context) (*Import, error) {
	s.mu.RLock()
	imp := s.current
	s.mu.RUnlock()
	if imp != nil {
		return imp, nil
	}
	return s.LoadLast(ctx)
}

// Narrate asks the narrator to comment on the latest cohorts of stats.
func (s *Service) Narrate(ctx context.Context, stats CohortStats) (string, error) {
	if s.narrator == nil {
		return "", ErrNarrativeUnavailable
	}
	if len(stats.Cohorts) == 0 {
		return "", fmt.Errorf("generate narrative: %w", ErrNoStartColumn)
	}

	text, err := s.narrator.Narrate(ctx, NarrativeSummary(stats, s.cfg.NarrativeCohorts))
	if err != nil {
		return "", fmt.Errorf("generate narrative: %w", err)
	}
	return text, nil
}

// LimiterStatus reports import concurrency for monitoring.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) compute(imp *Import) error {
	res, err := Compute(imp.Rows, s.cfg.Clock(), Options{Markers: s.cfg.Markers})
	if err != nil {
		return err
	}
	if err := RequireCohorts(res); err != nil {
		return err
	}
	imp.Result = res
	return nil
}

func (s *Service) persist(ctx context.Context, imp *Import) error {
	if s.store == nil {
		return nil
	}

	// The caller's context may already be finishing (HTTP request); the
	// save gets its own deadline.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.StoreTimeout)
	defer cancel()

	err := s.store.SaveLastImport(storeCtx, Snapshot{
		ID:         imp.ID,
		FileName:   imp.FileName,
		ImportedAt: imp.ImportedAt,
		Rows:       imp.Rows,
	})
	if err != nil {
		return fmt.Errorf("save last import: %w", err)
	}
	return nil
}

func (s *Service) setCurrent(imp *Import) {
	s.mu.Lock()
	s.current = imp
	s.mu.Unlock()
}

// NarrativeSummary renders the latest n cohorts as one line each, oldest first.
func NarrativeSummary(stats CohortStats, n int) string {
	cohorts := stats.Cohorts
	if n > 0 && len(cohorts) > n {
		cohorts = cohorts[len(cohorts)-n:]
	}

	var b strings.Builder
	for _, c := range cohorts {
		fmt.Fprintf(&b, "%s: %d starters, Média: %.2f%%, Crescimento: %.2f%%\n",
			c.Cohort, c.TotalStarters, c.Average*100, c.Growth*100)
	}
	return b.String()
}

// IsUserError reports whether err stems from the uploaded data rather than
// from the service or its collaborators.
func IsUserError(err error) bool {
	return errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrNoStartColumn) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrInvalidArgument)
}
