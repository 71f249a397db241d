package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bankit/internal/amqp"
	"bankit/internal/cache"
	"bankit/internal/core"
	"bankit/internal/ledger"
	"bankit/internal/log"
	"bankit/internal/ports"
)

// OptionLastSync records the date of the last statement synchronization.
const OptionLastSync = "lastSync"

// DefaultInitLabel labels the opening balance operation when none is given.
const DefaultInitLabel = "Initial balance"

// ClearCategory passed to AssignCategory removes the category.
const ClearCategory int64 = -1

var ErrAmountRequired = errors.New("amount is required")

// IsValidation reports whether err was caused by invalid user input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrAmountRequired,
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidDay,
		core.ErrEmptyLabel,
		core.ErrLabelTooLong,
		core.ErrEmptyCategoryName,
		core.ErrDuplicateCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type (
	// AccountView is everything the account list page shows.
	AccountView struct {
		Window     ledger.Window         `json:"window"`
		Entries    []ledger.Entry        `json:"entries"`
		Future     []ledger.MonthOps     `json:"future,omitempty"`
		Categories []core.Category       `json:"categories"`
		Summary    []ledger.MonthSummary `json:"summary"`
		// LastSync is zero when the account was never synchronized.
		LastSync core.Date `json:"lastSync"`

		Current        core.Money `json:"current"`
		CurrentDiff    core.Money `json:"currentDiff"`
		PlannedWaiting core.Money `json:"plannedWaiting"`
		CurrentWaiting core.Money `json:"currentWaiting"`
		PeriodBalance  core.Money `json:"periodBalance"`
	}

	// PlannedInput describes a manually planned operation. Amount is the
	// magnitude entered by the user; Debit negates it.
	PlannedInput struct {
		Date       core.Date
		Label      string
		Amount     core.NullMoney
		Debit      bool
		CategoryID int64
	}

	// InitInput opens the account with its starting balance.
	InitInput struct {
		Date   core.Date
		Label  string
		Amount core.NullMoney
	}
)

// AccountService implements the account use cases on top of a storage
// backend and the pure ledger engine.
type AccountService struct {
	store        ports.Backend
	events       EventPublisher
	materializer *CostMaterializer
	totals       *cache.LRUCache[core.Month, []core.CategoryTotal]
	versions     *totalsVersions
	opts         ledger.ProjectOptions
	now          func() time.Time
	logger       *log.Logger
}

// Options configures an AccountService. Zero cache settings select the
// defaults.
type Options struct {
	Horizon        int
	CostCutoffDays int
	CacheSize      int
	CacheTTL       time.Duration
	Logger         *log.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewAccountService creates the service. events may be nil when AMQP is not
// configured.
func NewAccountService(store ports.Backend, events EventPublisher, o Options) *AccountService {
	logger := o.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 64
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 5 * time.Minute
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	opts := ledger.ProjectOptions{Horizon: o.Horizon, CostCutoffDays: o.CostCutoffDays}

	return &AccountService{
		store:        store,
		events:       events,
		materializer: NewCostMaterializer(store, opts.CostCutoffDays, logger),
		totals:       cache.NewLRUCache[core.Month, []core.CategoryTotal](o.CacheSize, o.CacheTTL),
		versions:     &totalsVersions{months: make(map[core.Month]uint64)},
		opts:         opts,
		now:          o.Clock,
		logger:       logger.WithComponent(log.ComponentAccount),
	}
}

// WithHorizon returns a copy of the service projecting n months after the
// current one. The copy shares the store and the cache.
func (s *AccountService) WithHorizon(n int) *AccountService {
	c := *s
	c.opts.Horizon = n
	return &c
}

// SummaryCache exposes the category totals cache so it can be swept by a
// cache.Manager.
func (s *AccountService) SummaryCache() cache.Cleaner {
	return s.totals
}

func (s *AccountService) today() core.Date { return core.DateOf(s.now()) }

// Today returns the service's current day.
func (s *AccountService) Today() core.Date { return s.today() }

// Overview resolves the window, reconciles its history and projects the
// following months when the window reaches today. It returns
// ledger.ErrAccountNotInitialized for an empty account.
func (s *AccountService) Overview(ctx context.Context, startInput, endInput string) (*AccountView, error) {
	today := s.today()
	w := ledger.ResolveWindow(startInput, endInput, today)

	s.logger.DebugContext(ctx, "Building account overview",
		log.NewFields().WithWindow(w.Start.String(), w.End.String(), w.ProjectFuture).ToSlice()...)

	var (
		ops        []core.Operation
		opening    core.NullMoney
		categories []core.Category
		summary    []ledger.MonthSummary
		costs      []core.Cost
		planned    []core.Operation
		lastSync   core.Date
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ops, err = s.store.History(gctx, w.Start, w.End)
		return err
	})
	g.Go(func() (err error) {
		opening, err = s.store.OpeningBalance(gctx, w.Start)
		return err
	})
	g.Go(func() (err error) {
		categories, err = s.store.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary, err = ledger.SummarizeCategories(gctx, ledger.CategoryAggregatorFunc(s.CategoryTotals), w.Start, w.End)
		return err
	})
	g.Go(func() error {
		v, ok, err := s.store.Option(gctx, OptionLastSync)
		if err != nil || !ok {
			return err
		}
		if d, err := core.ParseDate(v); err == nil {
			lastSync = d
		} else {
			s.logger.WarnContext(gctx, "Ignoring malformed last sync date", "value", v)
		}
		return nil
	})
	if w.ProjectFuture {
		g.Go(func() (err error) {
			costs, err = s.store.Costs(gctx)
			return err
		})
		g.Go(func() (err error) {
			planned, err = s.store.Future(gctx, w.End)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load account data: %w", err)
	}

	history, err := ledger.Reconcile(ops, opening)
	if err != nil {
		return nil, err
	}

	view := &AccountView{
		Window:         w,
		Entries:        history.Entries,
		Categories:     categories,
		Summary:        summary,
		LastSync:       lastSync,
		Current:        history.Balance,
		CurrentDiff:    history.ForecastError,
		PlannedWaiting: history.Waiting,
		CurrentWaiting: history.CurrentWaiting(),
		PeriodBalance:  history.PeriodBalance(),
	}

	if w.ProjectFuture {
		view.Future, err = ledger.Project(w.End, planned, costs, history.CurrentWaiting(), s.opts)
		if err != nil {
			return nil, fmt.Errorf("project future: %w", err)
		}
	}

	return view, nil
}

// AddPlanned stores a planned-only operation.
func (s *AccountService) AddPlanned(ctx context.Context, in PlannedInput) (int64, error) {
	amount, ok := in.Amount.Get()
	if !ok {
		return 0, ErrAmountRequired
	}
	if in.Debit {
		amount = amount.Neg()
	}
	if in.CategoryID > 0 {
		if _, err := s.store.Category(ctx, in.CategoryID); err != nil {
			return 0, err
		}
	}

	op := core.Operation{
		Date:       in.Date,
		Label:      strings.TrimSpace(in.Label),
		Planned:    core.Some(amount),
		CategoryID: in.CategoryID,
	}
	id, err := s.store.InsertOperation(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("add planned operation: %w", err)
	}

	s.invalidate(op.Date)
	s.logger.InfoContext(ctx, "Planned operation added",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithLedgerOperation(id, op.Label, op.Date.String(), "", amount.String()).
			ToSlice()...)
	s.publish(ctx, amqp.EventOperationPlanned, id, core.MonthOf(op.Date).String())
	return id, nil
}

// DeleteOperation removes an operation. It reports false when it did not
// exist.
func (s *AccountService) DeleteOperation(ctx context.Context, id int64) (bool, error) {
	op, err := s.store.Operation(ctx, id)
	if errors.Is(err, core.ErrOperationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.store.DeleteOperation(ctx, id); err != nil {
		if errors.Is(err, core.ErrOperationNotFound) {
			return false, nil
		}
		return false, err
	}

	s.invalidate(op.Date)
	s.logger.InfoContext(ctx, "Operation deleted",
		log.FieldOperation, log.OpDelete, log.FieldOperationID, id)
	s.publish(ctx, amqp.EventOperationDeleted, id, core.MonthOf(op.Date).String())
	return true, nil
}

// Unmerge drops the planned amount of a settled operation. It reports false
// when the operation does not exist.
func (s *AccountService) Unmerge(ctx context.Context, id int64) (bool, error) {
	op, err := s.store.Operation(ctx, id)
	if errors.Is(err, core.ErrOperationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !op.Settled() {
		return false, fmt.Errorf("unmerge operation %d: %w", id, core.ErrInconsistentOperation)
	}

	op.Planned = core.NullMoney{}
	if err := s.store.UpdateOperation(ctx, op); err != nil {
		return false, fmt.Errorf("unmerge operation %d: %w", id, err)
	}

	s.invalidate(op.Date)
	s.logger.InfoContext(ctx, "Operation unmerged",
		log.FieldOperation, log.OpUnmerge, log.FieldOperationID, id)
	s.publish(ctx, amqp.EventOperationUnmerged, id, core.MonthOf(op.Date).String())
	return true, nil
}

// InitAccount stores the opening balance, materializes the costs due soon
// and records the operation date as the last sync date.
func (s *AccountService) InitAccount(ctx context.Context, in InitInput) (int64, error) {
	amount, ok := in.Amount.Get()
	if !ok {
		return 0, ErrAmountRequired
	}
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = DefaultInitLabel
	}

	op := core.Operation{Date: in.Date, Label: label, Amount: core.Some(amount)}
	id, err := s.store.InsertOperation(ctx, op)
	if err != nil {
		return 0, fmt.Errorf("init account: %w", err)
	}

	if _, err := s.MaterializeCosts(ctx); err != nil {
		return 0, err
	}
	if err := s.store.SetOption(ctx, OptionLastSync, op.Date.String()); err != nil {
		return 0, fmt.Errorf("record last sync: %w", err)
	}

	s.logger.InfoContext(ctx, "Account initialized",
		log.NewFields().
			WithOperation(log.OpInit).
			WithLedgerOperation(id, label, op.Date.String(), amount.String(), "").
			ToSlice()...)
	s.publish(ctx, amqp.EventAccountInitialized, id, core.MonthOf(op.Date).String())
	return id, nil
}

// AssignCategory sets the category of an operation. ClearCategory removes
// it.
func (s *AccountService) AssignCategory(ctx context.Context, opID, catID int64) error {
	op, err := s.store.Operation(ctx, opID)
	if err != nil {
		return err
	}

	if catID == ClearCategory {
		op.CategoryID = 0
	} else {
		cat, err := s.store.Category(ctx, catID)
		if err != nil {
			return err
		}
		op.CategoryID = cat.ID
	}

	if err := s.store.UpdateOperation(ctx, op); err != nil {
		return fmt.Errorf("assign category: %w", err)
	}

	s.invalidate(op.Date)
	s.logger.InfoContext(ctx, "Operation category updated",
		log.FieldOperationID, opID, log.FieldCategoryID, op.CategoryID)
	s.publish(ctx, amqp.EventCategoryAssigned, opID, core.MonthOf(op.Date).String())
	return nil
}

// MaterializeCosts stores the costs falling due before today plus the
// cutoff as planned operations.
func (s *AccountService) MaterializeCosts(ctx context.Context) (int, error) {
	n, err := s.materializer.Materialize(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("materialize costs: %w", err)
	}
	if n > 0 {
		s.PurgeTotals()
	}
	return n, nil
}

func (s *AccountService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.Categories(ctx)
}

func (s *AccountService) AddCategory(ctx context.Context, name string) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name)}
	id, err := s.store.InsertCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	c.ID = id
	s.logger.InfoContext(ctx, "Category added", log.FieldCategoryID, id, "name", c.Name)
	return c, nil
}

func (s *AccountService) Costs(ctx context.Context) ([]core.Cost, error) {
	return s.store.Costs(ctx)
}

func (s *AccountService) AddCost(ctx context.Context, c core.Cost) (core.Cost, error) {
	c.Label = strings.TrimSpace(c.Label)
	if c.CategoryID > 0 {
		if _, err := s.store.Category(ctx, c.CategoryID); err != nil {
			return core.Cost{}, err
		}
	}
	id, err := s.store.InsertCost(ctx, c)
	if err != nil {
		return core.Cost{}, fmt.Errorf("add cost: %w", err)
	}
	c.ID = id
	s.logger.InfoContext(ctx, "Cost added", log.FieldCostID, id, log.FieldLabel, c.Label)
	s.publish(ctx, amqp.EventCostsChanged, 0, "")
	return c, nil
}

func (s *AccountService) DeleteCost(ctx context.Context, id int64) error {
	if err := s.store.DeleteCost(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Cost deleted", log.FieldCostID, id)
	s.publish(ctx, amqp.EventCostsChanged, 0, "")
	return nil
}

// CategoryTotals returns the per-category totals of a month, cached until an
// operation of that month changes. When the store is shared with another
// process the cache is also dropped as soon as that process commits.
func (s *AccountService) CategoryTotals(ctx context.Context, month core.Month) ([]core.CategoryTotal, error) {
	s.syncTotals(ctx)
	if totals, ok := s.totals.Get(month); ok {
		return totals, nil
	}
	gen := s.versions.generation(month)
	totals, err := s.store.CategoryTotals(ctx, month)
	if err != nil {
		return nil, err
	}
	// A write invalidated the month while it was being read.
	if s.versions.generation(month) == gen {
		s.totals.Set(month, totals)
	}
	return totals, nil
}

// Summary returns the category totals of every month between from and to.
func (s *AccountService) Summary(ctx context.Context, from, to core.Date) ([]ledger.MonthSummary, error) {
	return ledger.SummarizeCategories(ctx, ledger.CategoryAggregatorFunc(s.CategoryTotals), from, to)
}

// RecentSummary returns the summary of the last n months, current included.
func (s *AccountService) RecentSummary(ctx context.Context, n int) ([]ledger.MonthSummary, error) {
	today := s.today()
	from := core.MonthOf(today).Add(1 - n).FirstDay()
	return s.Summary(ctx, from, today)
}

// InvalidateMonth drops the cached totals of a month. It is used when the
// month was changed by another process.
func (s *AccountService) InvalidateMonth(m core.Month) {
	s.versions.bump(m)
	s.totals.Delete(m)
}

// PurgeTotals drops every cached month.
func (s *AccountService) PurgeTotals() {
	s.versions.bumpAll()
	s.totals.Purge()
}

func (s *AccountService) invalidate(d core.Date) {
	s.InvalidateMonth(core.MonthOf(d))
}

// syncTotals purges the cache when the store reports a commit made
// elsewhere since the last check.
func (s *AccountService) syncTotals(ctx context.Context) {
	w, ok := s.store.(ports.ChangeWatcher)
	if !ok {
		return
	}
	v, err := w.DataVersion(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read store data version", log.FieldError, err.Error())
		s.PurgeTotals()
		return
	}
	if s.versions.observe(v) {
		s.PurgeTotals()
	}
}

// totalsVersions counts invalidations so that a read racing with a write is
// not cached.
type totalsVersions struct {
	mu     sync.Mutex
	epoch  uint64
	months map[core.Month]uint64

	dataSeen    bool
	dataVersion int64
}

func (v *totalsVersions) generation(m core.Month) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.epoch + v.months[m]
}

func (v *totalsVersions) bump(m core.Month) {
	v.mu.Lock()
	v.months[m]++
	v.mu.Unlock()
}

func (v *totalsVersions) bumpAll() {
	v.mu.Lock()
	v.epoch++
	v.mu.Unlock()
}

// observe records the store data version and reports whether it moved.
func (v *totalsVersions) observe(version int64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	changed := v.dataSeen && version != v.dataVersion
	v.dataSeen = true
	v.dataVersion = version
	return changed
}
