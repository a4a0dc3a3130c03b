package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// lineReader turns "start|cancel" lines into rows with subsColumns.
type lineReader struct{}

func (lineReader) ReadRows(_ context.Context, _ string, r io.Reader) ([]RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []RawRow
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		start, cancel, _ := strings.Cut(line, "|")
		rows = append(rows, subRow(start, cancel))
	}
	return rows, nil
}

type failingReader struct{ err error }

func (f failingReader) ReadRows(context.Context, string, io.Reader) ([]RawRow, error) {
	return nil, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	snap    *Snapshot
	saveErr error
	saves   int
}

func (s *fakeStore) SaveLastImport(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snap = &snap
	return nil
}

func (s *fakeStore) LoadLastImport(context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, ErrNoImport
	}
	return s.snap, nil
}

type fakeNarrator struct {
	summary string
	text    string
	err     error
}

func (n *fakeNarrator) Narrate(_ context.Context, summary string) (string, error) {
	n.summary = summary
	return n.text, n.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(t *testing.T, store ImportStore, narrator Narrator, now time.Time) *Service {
	t.Helper()
	svc, err := NewService(lineReader{}, store, narrator, ServiceConfig{Clock: fixedClock(now)})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

const sampleUpload = "01/03/2023|\n01/03/2023|01/04/2023\n15/04/2023|\n"

func TestService_ImportPersistsAndComputes(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil, day(2023, time.May, 1))

	imp, err := svc.Import(context.Background(), "subs.csv", strings.NewReader(sampleUpload))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if imp.ID == "" {
		t.Error("import has no ID")
	}
	if imp.PersistError != "" {
		t.Errorf("PersistError = %q", imp.PersistError)
	}
	if got := len(imp.Stats().Cohorts); got != 2 {
		t.Errorf("cohorts = %d, want 2", got)
	}
	if store.snap == nil || store.snap.ID != imp.ID || len(store.snap.Rows) != 3 {
		t.Errorf("stored snapshot = %+v", store.snap)
	}

	cur, err := svc.Current(context.Background())
	if err != nil || cur != imp {
		t.Errorf("Current() = %v, %v; want the new import", cur, err)
	}
}

func TestService_PersistFailureKeepsResult(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("dial tcp: connection refused")}
	svc := newTestService(t, store, nil, day(2023, time.May, 1))

	imp, err := svc.Import(context.Background(), "subs.csv", strings.NewReader(sampleUpload))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !strings.Contains(imp.PersistError, "connection refused") {
		t.Errorf("PersistError = %q", imp.PersistError)
	}
	if len(imp.Stats().Cohorts) == 0 {
		t.Error("computed matrix was discarded")
	}
}

func TestService_ImportErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		reader RowReader
		input  string
		want   error
	}{
		{name: "reader failure", reader: failingReader{err: boom}, want: boom},
		{name: "empty dataset", reader: lineReader{}, input: "", want: ErrEmptyDataset},
		{name: "no dates", reader: lineReader{}, input: "soon|\nlater|\n", want: ErrNoStartColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc, err := NewService(tt.reader, store, nil, ServiceConfig{Clock: fixedClock(day(2023, 5, 1))})
			if err != nil {
				t.Fatal(err)
			}
			_, err = svc.Import(context.Background(), "f.csv", strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("Import() error = %v, want %v", err, tt.want)
			}
			if store.saves != 0 {
				t.Errorf("failed import was persisted %d times", store.saves)
			}
		})
	}
}

func TestService_LoadLastRecomputesWithCurrentClock(t *testing.T) {
	store := &fakeStore{}
	first := newTestService(t, store, nil, day(2023, time.May, 1))
	if _, err := first.Import(context.Background(), "subs.csv", strings.NewReader("01/03/2023|\n")); err != nil {
		t.Fatal(err)
	}

	later := newTestService(t, store, nil, day(2023, time.August, 1))
	imp, err := later.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	// Active since March: tenure Aug-Mar+1 = 6.
	row := imp.Stats().Cohorts[0]
	if row.Retention[5] != 1 || row.Retention[6] != 0 {
		t.Errorf("retention = %v, want six realized months", row.Retention[:8])
	}
}

// gatedStore blocks every load until release is closed.
type gatedStore struct {
	fakeStore
	release chan struct{}
	loads   atomic.Int32
}

func (s *gatedStore) LoadLastImport(ctx context.Context) (*Snapshot, error) {
	s.loads.Add(1)
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.fakeStore.LoadLastImport(ctx)
}

func TestService_ConcurrentRestoreReadsStoreOnce(t *testing.T) {
	store := &gatedStore{release: make(chan struct{})}
	store.snap = &Snapshot{ID: "snap-1", FileName: "subs.csv", Rows: []RawRow{subRow("01/03/2023", "")}}
	svc := newTestService(t, store, nil, day(2023, time.May, 1))

	const callers = 8
	var wg sync.WaitGroup
	ids := make([]string, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			imp, err := svc.Current(context.Background())
			errs[i] = err
			if imp != nil {
				ids[i] = imp.ID
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	for i := range callers {
		if errs[i] != nil || ids[i] != "snap-1" {
			t.Errorf("caller %d: id = %q, err = %v", i, ids[i], errs[i])
		}
	}
	if n := store.loads.Load(); n != 1 {
		t.Errorf("store loads = %d, want 1", n)
	}
}

func TestService_RestoreOutlivesFirstCaller(t *testing.T) {
	store := &gatedStore{release: make(chan struct{})}
	store.snap = &Snapshot{ID: "snap-1", FileName: "subs.csv", Rows: []RawRow{subRow("01/03/2023", "")}}
	svc := newTestService(t, store, nil, day(2023, time.May, 1))

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.LoadLast(firstCtx)
		firstErr <- err
	}()
	for store.loads.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		imp *Import
		err error
	}
	second := make(chan result, 1)
	go func() {
		imp, err := svc.LoadLast(context.Background())
		second <- result{imp, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller error = %v, want context.Canceled", err)
	}

	close(store.release)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller error = %v", got.err)
	}
	if got.imp.ID != "snap-1" {
		t.Errorf("second caller ID = %q, want snap-1", got.imp.ID)
	}
	if n := store.loads.Load(); n != 1 {
		t.Errorf("store loads = %d, want 1", n)
	}
}

func TestService_LoadLastEmpty(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil, day(2023, 5, 1))
	if _, err := svc.LoadLast(context.Background()); !errors.Is(err, ErrNoImport) {
		t.Errorf("LoadLast() error = %v, want ErrNoImport", err)
	}

	noStore := newTestService(t, nil, nil, day(2023, 5, 1))
	if _, err := noStore.Current(context.Background()); !errors.Is(err, ErrNoImport) {
		t.Errorf("Current() without store error = %v, want ErrNoImport", err)
	}
}

func TestService_Narrate(t *testing.T) {
	n := &fakeNarrator{text: "insights"}
	svc := newTestService(t, nil, n, day(2023, 5, 1))

	stats := CohortStats{MaxMonths: MaxMonths}
	for m := 1; m <= 8; m++ {
		stats.Cohorts = append(stats.Cohorts, CohortRow{
			Cohort:        MonthKey(day(2022, time.Month(m), 1)),
			TotalStarters: m,
			Average:       0.5,
		})
	}

	got, err := svc.Narrate(context.Background(), stats)
	if err != nil || got != "insights" {
		t.Fatalf("Narrate() = %q, %v", got, err)
	}

	lines := strings.Split(strings.TrimSpace(n.summary), "\n")
	if len(lines) != DefaultNarrativeCohorts {
		t.Fatalf("summary has %d lines, want %d:\n%s", len(lines), DefaultNarrativeCohorts, n.summary)
	}
	if want := "2022-03: 3 starters, Média: 50.00%, Crescimento: 0.00%"; lines[0] != want {
		t.Errorf("first line = %q, want %q", lines[0], want)
	}
}

func TestService_NarrateErrors(t *testing.T) {
	stats := CohortStats{Cohorts: []CohortRow{{Cohort: "2023-01", TotalStarters: 1}}}

	noNarrator := newTestService(t, nil, nil, day(2023, 5, 1))
	if _, err := noNarrator.Narrate(context.Background(), stats); !errors.Is(err, ErrNarrativeUnavailable) {
		t.Errorf("without narrator: %v", err)
	}

	boom := errors.New("quota")
	failing := newTestService(t, nil, &fakeNarrator{err: boom}, day(2023, 5, 1))
	_, err := failing.Narrate(context.Background(), stats)
	if !errors.Is(err, boom) || MapError(err).Code != "AI002" {
		t.Errorf("failing narrator: %v (code %s)", err, MapError(err).Code)
	}
}

func TestNewService_RequiresReader(t *testing.T) {
	if _, err := NewService(nil, nil, nil, ServiceConfig{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("NewService(nil) error = %v", err)
	}
}
