// Package worker reacts to account events and periodically keeps the
// materialized costs and the exported summary up to date.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bankit/internal/amqp"
	"bankit/internal/core"
	"bankit/internal/ledger"
	"bankit/internal/log"
)

// Account is the part of the account service the worker drives.
type Account interface {
	MaterializeCosts(ctx context.Context) (int, error)
	RecentSummary(ctx context.Context, months int) ([]ledger.MonthSummary, error)
	// Events usually come from another process, whose writes this
	// process's cached totals know nothing about.
	InvalidateMonth(m core.Month)
	PurgeTotals()
}

// SummaryExporter publishes the category summary somewhere outside the
// application.
type SummaryExporter interface {
	ExportSummary(ctx context.Context, summaries []ledger.MonthSummary) error
}

// Config holds configuration for the event worker
type Config struct {
	// Interval between two materialize and export cycles (default: 1h)
	Interval time.Duration

	// ExportMonths is the number of months exported, current included (default: 3)
	ExportMonths int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:     time.Hour,
		ExportMonths: 3,
	}
}

// EventWorker materializes due costs and exports the category summary, on
// account events and on a ticker.
type EventWorker struct {
	account  Account
	exporter SummaryExporter
	config   Config
	logger   *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewEventWorker creates the worker. exporter may be nil when Google Sheets
// is not configured.
func NewEventWorker(account Account, exporter SummaryExporter, config Config, logger *log.Logger) *EventWorker {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.ExportMonths <= 0 {
		config.ExportMonths = def.ExportMonths
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{
		account:  account,
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single account event from AMQP
func (w *EventWorker) HandleEvent(ctx context.Context, ev amqp.AccountEvent) error {
	w.logger.InfoContext(ctx, "Processing account event",
		log.FieldEventID, ev.ID,
		log.FieldEventType, ev.Type,
		log.FieldOperationID, ev.OperationID,
		log.FieldMonth, ev.Month)

	if m, ok := core.ParseMonth(ev.Month); ok {
		w.account.InvalidateMonth(m)
	} else {
		w.account.PurgeTotals()
	}

	if ev.Type == amqp.EventAccountInitialized || ev.Type == amqp.EventCostsChanged {
		if _, err := w.account.MaterializeCosts(ctx); err != nil {
			return fmt.Errorf("materialize costs: %w", err)
		}
	}
	return w.export(ctx)
}

// RunCycle materializes due costs then exports the summary. Both steps run
// even if the first fails.
func (w *EventWorker) RunCycle(ctx context.Context) error {
	var errs []error
	w.account.PurgeTotals()
	if n, err := w.account.MaterializeCosts(ctx); err != nil {
		errs = append(errs, fmt.Errorf("materialize costs: %w", err))
	} else if n > 0 {
		w.logger.InfoContext(ctx, "Periodic materialization created operations", "created", n)
	}
	if err := w.export(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (w *EventWorker) export(ctx context.Context) error {
	if w.exporter == nil {
		w.logger.DebugContext(ctx, "No summary exporter configured, skipping export")
		return nil
	}
	summaries, err := w.account.RecentSummary(ctx, w.config.ExportMonths)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}
	if err := w.exporter.ExportSummary(ctx, summaries); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

// Start begins the periodic loop. Returns an error if already running.
func (w *EventWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("event worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Event worker started",
		"interval", w.config.Interval,
		"export_months", w.config.ExportMonths,
		"export_enabled", w.exporter != nil)
	return nil
}

// Stop gracefully stops the loop and waits for the current cycle.
func (w *EventWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		w.logger.InfoContext(ctx, "Event worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Event worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

// IsRunning returns whether the loop is currently running
func (w *EventWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *EventWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Run immediately on startup to catch up after downtime
	w.cycle(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

func (w *EventWorker) cycle(ctx context.Context) {
	if err := w.RunCycle(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Periodic cycle failed", log.FieldError, err.Error())
	}
}
