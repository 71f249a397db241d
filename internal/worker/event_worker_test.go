package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bankit/internal/amqp"
	"bankit/internal/core"
	"bankit/internal/ledger"
	"bankit/internal/memory"
	"bankit/internal/services"
)

type fakeAccount struct {
	mu             sync.Mutex
	materialized   int
	summaries      int
	invalidated    []core.Month
	purged         int
	materializeErr error
}

func (a *fakeAccount) InvalidateMonth(m core.Month) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.invalidated = append(a.invalidated, m)
}

func (a *fakeAccount) PurgeTotals() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.purged++
}

func (a *fakeAccount) MaterializeCosts(context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.materialized++
	return 1, a.materializeErr
}

func (a *fakeAccount) RecentSummary(context.Context, int) ([]ledger.MonthSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summaries++
	return []ledger.MonthSummary{{Month: core.NewMonth(2024, time.March)}}, nil
}

func (a *fakeAccount) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.materialized, a.summaries
}

type fakeExporter struct {
	mu       sync.Mutex
	exported [][]ledger.MonthSummary
	err      error
}

func (e *fakeExporter) ExportSummary(_ context.Context, s []ledger.MonthSummary) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exported = append(e.exported, s)
	return e.err
}

func (e *fakeExporter) last() []ledger.MonthSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.exported) == 0 {
		return nil
	}
	return e.exported[len(e.exported)-1]
}

func (e *fakeExporter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.exported)
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		eventType       string
		wantMaterialize int
	}{
		{amqp.EventAccountInitialized, 1},
		{amqp.EventCostsChanged, 1},
		{amqp.EventOperationPlanned, 0},
		{amqp.EventCategoryAssigned, 0},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			account := &fakeAccount{}
			exporter := &fakeExporter{}
			w := NewEventWorker(account, exporter, Config{}, nil)

			if err := w.HandleEvent(context.Background(), amqp.NewAccountEvent(tt.eventType, 1, "2024-03")); err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}
			materialized, _ := account.counts()
			if materialized != tt.wantMaterialize {
				t.Errorf("materialized %d times, want %d", materialized, tt.wantMaterialize)
			}
			if exporter.count() != 1 {
				t.Errorf("exported %d times, want 1", exporter.count())
			}
		})
	}
}

func TestHandleEventWithoutExporter(t *testing.T) {
	account := &fakeAccount{}
	w := NewEventWorker(account, nil, Config{}, nil)

	if err := w.HandleEvent(context.Background(), amqp.NewAccountEvent(amqp.EventOperationDeleted, 1, "2024-03")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	if _, summaries := account.counts(); summaries != 0 {
		t.Errorf("summary built %d times without exporter", summaries)
	}
}

func TestRunCycleJoinsErrors(t *testing.T) {
	account := &fakeAccount{materializeErr: errors.New("db down")}
	exporter := &fakeExporter{err: errors.New("quota exceeded")}
	w := NewEventWorker(account, exporter, Config{}, nil)

	err := w.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, account.materializeErr) || !errors.Is(err, exporter.err) {
		t.Errorf("RunCycle() error = %v, want both failures", err)
	}
	if exporter.count() != 1 {
		t.Error("export should run even when materialization fails")
	}
}

func TestStartStop(t *testing.T) {
	account := &fakeAccount{}
	w := NewEventWorker(account, &fakeExporter{}, Config{Interval: 10 * time.Millisecond}, nil)
	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if !w.IsRunning() {
		t.Error("worker should be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if n, _ := account.counts(); n >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("ticker never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if w.IsRunning() {
		t.Error("worker should be stopped")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestDefaultConfigApplied(t *testing.T) {
	w := NewEventWorker(&fakeAccount{}, nil, Config{}, nil)
	if w.config != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", w.config)
	}
}

func TestHandleEventInvalidatesEventMonth(t *testing.T) {
	tests := []struct {
		month       string
		wantInvalid []core.Month
		wantPurged  int
	}{
		{"2024-03", []core.Month{core.NewMonth(2024, time.March)}, 0},
		{"", nil, 1},
		{"garbage", nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			account := &fakeAccount{}
			w := NewEventWorker(account, nil, Config{}, nil)

			if err := w.HandleEvent(context.Background(), amqp.NewAccountEvent(amqp.EventOperationPlanned, 1, tt.month)); err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}
			account.mu.Lock()
			defer account.mu.Unlock()
			if len(account.invalidated) != len(tt.wantInvalid) || (len(tt.wantInvalid) > 0 && account.invalidated[0] != tt.wantInvalid[0]) {
				t.Errorf("invalidated = %v, want %v", account.invalidated, tt.wantInvalid)
			}
			if account.purged != tt.wantPurged {
				t.Errorf("purged %d times, want %d", account.purged, tt.wantPurged)
			}
		})
	}
}

// Writes made by the server process reach the store directly, so the
// worker's cached totals must be dropped when their event arrives.
func TestHandleEventExportsWritesFromAnotherProcess(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	food, err := store.InsertCategory(ctx, core.Category{Name: "Food"})
	if err != nil {
		t.Fatal(err)
	}

	clock := func() time.Time { return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC) }
	account := services.NewAccountService(store, nil, services.Options{Clock: clock})
	exporter := &fakeExporter{}
	w := NewEventWorker(account, exporter, Config{ExportMonths: 1}, nil)

	if err := w.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}
	if got := exporter.last(); len(got) != 0 {
		t.Fatalf("initial export = %+v, want no month", got)
	}

	id, err := store.InsertOperation(ctx, core.Operation{
		Date:       core.NewDate(2024, 3, 20),
		Label:      "groceries",
		Planned:    core.Some(core.Cents(-4200)),
		CategoryID: food,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.HandleEvent(ctx, amqp.NewAccountEvent(amqp.EventOperationPlanned, id, "2024-03")); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	got := exporter.last()
	if len(got) != 1 || len(got[0].Totals) != 1 {
		t.Fatalf("export after event = %+v, want one Food total", got)
	}
	if total := got[0].Totals[0].Total.Cents(); total != -4200 {
		t.Errorf("Food total = %d cents, want -4200", total)
	}
}
