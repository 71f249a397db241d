// Package memory keeps the whole account in process memory. It backs the
// server when DATA_BACKEND=memory and is seeded from a YAML file.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"bankit/internal/core"
	"bankit/internal/ports"
)

var _ ports.Backend = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	ops     map[int64]core.Operation
	costs   map[int64]core.Cost
	cats    map[int64]core.Category
	options map[string]string
}

func New() *Store {
	return &Store{
		ops:     map[int64]core.Operation{},
		costs:   map[int64]core.Cost{},
		cats:    map[int64]core.Category{},
		options: map[string]string{},
	}
}

var defaultCategories = []string{"Housing", "Food", "Transport"}

// Seed is the YAML layout accepted by NewFromFile.
type Seed struct {
	Categories []string          `yaml:"categories"`
	Costs      []SeedCost        `yaml:"costs"`
	Operations []SeedOperation   `yaml:"operations"`
	Options    map[string]string `yaml:"options"`
}

type SeedCost struct {
	Day      int    `yaml:"day"`
	Amount   string `yaml:"amount"`
	Label    string `yaml:"label"`
	Category string `yaml:"category"`
}

type SeedOperation struct {
	Date     string `yaml:"date"`
	Label    string `yaml:"label"`
	Amount   string `yaml:"amount"`
	Planned  string `yaml:"planned"`
	Category string `yaml:"category"`
}

// NewFromFile loads a seed file. A missing file yields a store holding the
// default categories.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, s.seedCategories(defaultCategories)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, s.seedCategories(defaultCategories)
	}
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if err := s.Load(seed); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", path, err)
	}
	return s, nil
}

// Load adds the seed content to the store.
func (s *Store) Load(seed Seed) error {
	if err := s.seedCategories(seed.Categories); err != nil {
		return err
	}
	ctx := context.Background()
	for i, c := range seed.Costs {
		amount, err := core.ParseAmount(c.Amount)
		if err != nil {
			return fmt.Errorf("cost %d: %w", i, err)
		}
		if _, err := s.InsertCost(ctx, core.Cost{Day: c.Day, Amount: amount, Label: c.Label, CategoryID: s.categoryID(c.Category)}); err != nil {
			return fmt.Errorf("cost %d: %w", i, err)
		}
	}
	for i, o := range seed.Operations {
		op, err := s.seedOperation(o)
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		if _, err := s.InsertOperation(ctx, op); err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	for k, v := range seed.Options {
		if err := s.SetOption(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) seedOperation(o SeedOperation) (core.Operation, error) {
	d, err := core.ParseDate(o.Date)
	if err != nil {
		return core.Operation{}, err
	}
	op := core.Operation{Date: d, Label: o.Label, CategoryID: s.categoryID(o.Category)}
	if strings.TrimSpace(o.Amount) != "" {
		m, err := core.ParseAmount(o.Amount)
		if err != nil {
			return core.Operation{}, err
		}
		op.Amount = core.Some(m)
	}
	if strings.TrimSpace(o.Planned) != "" {
		m, err := core.ParseAmount(o.Planned)
		if err != nil {
			return core.Operation{}, err
		}
		op.Planned = core.Some(m)
	}
	return op, nil
}

func (s *Store) seedCategories(names []string) error {
	for _, n := range dedupe(names) {
		if s.categoryID(n) != 0 {
			continue
		}
		if _, err := s.InsertCategory(context.Background(), core.Category{Name: n}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) categoryID(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.cats {
		if c.Name == name {
			return id
		}
	}
	return 0
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Close() error { return nil }

func (s *Store) History(_ context.Context, start, end core.Date) ([]core.Operation, error) {
	return s.filter(func(op core.Operation) bool {
		return !op.Date.Before(start) && !op.Date.After(end)
	}), nil
}

func (s *Store) OpeningBalance(_ context.Context, before core.Date) (core.NullMoney, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum core.NullMoney
	for _, op := range s.ops {
		if op.Amount.Valid && op.Date.Before(before) {
			sum = core.Some(sum.Money.Add(op.Amount.Money))
		}
	}
	return sum, nil
}

func (s *Store) Future(_ context.Context, after core.Date) ([]core.Operation, error) {
	return s.filter(func(op core.Operation) bool {
		return !op.Amount.Valid && op.Planned.Valid && op.Date.After(after)
	}), nil
}

// filter returns the matching operations ordered by date then id.
func (s *Store) filter(keep func(core.Operation) bool) []core.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Operation
	for _, op := range s.ops {
		if keep(op) {
			out = append(out, op)
		}
	}
	slices.SortFunc(out, func(a, b core.Operation) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Store) Operation(_ context.Context, id int64) (core.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[id]
	if !ok {
		return core.Operation{}, fmt.Errorf("operation %d: %w", id, core.ErrOperationNotFound)
	}
	return op, nil
}

func (s *Store) InsertOperation(_ context.Context, op core.Operation) (int64, error) {
	if err := op.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op.ID = s.id()
	s.ops[op.ID] = op
	return op.ID, nil
}

func (s *Store) UpdateOperation(_ context.Context, op core.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ops[op.ID]; !ok {
		return fmt.Errorf("operation %d: %w", op.ID, core.ErrOperationNotFound)
	}
	s.ops[op.ID] = op
	return nil
}

func (s *Store) DeleteOperation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ops[id]; !ok {
		return fmt.Errorf("operation %d: %w", id, core.ErrOperationNotFound)
	}
	delete(s.ops, id)
	return nil
}

func (s *Store) PlannedExists(_ context.Context, label string, date core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range s.ops {
		if op.Planned.Valid && op.Label == label && op.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Costs(_ context.Context) ([]core.Cost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Cost, 0, len(s.costs))
	for _, c := range s.costs {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.Cost) int {
		if c := cmp.Compare(a.Day, b.Day); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) InsertCost(_ context.Context, c core.Cost) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.costs[c.ID] = c
	return c.ID, nil
}

func (s *Store) DeleteCost(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.costs[id]; !ok {
		return fmt.Errorf("cost %d: %w", id, core.ErrCostNotFound)
	}
	delete(s.costs, id)
	return nil
}

func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) Category(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cats[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrCategoryNotFound)
	}
	return c, nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cats {
		if existing.Name == c.Name {
			return 0, fmt.Errorf("%w: %q", core.ErrDuplicateCategory, c.Name)
		}
	}
	c.ID = s.id()
	s.cats[c.ID] = c
	return c.ID, nil
}

func (s *Store) CategoryTotals(_ context.Context, month core.Month) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[int64]core.Money{}
	for _, op := range s.ops {
		if op.CategoryID == 0 || !month.Contains(op.Date) {
			continue
		}
		if _, ok := s.cats[op.CategoryID]; !ok {
			continue
		}
		sums[op.CategoryID] = sums[op.CategoryID].Add(op.Value())
	}
	out := make([]core.CategoryTotal, 0, len(sums))
	for id, total := range sums {
		out = append(out, core.CategoryTotal{Category: s.cats[id], Total: total})
	}
	slices.SortFunc(out, func(a, b core.CategoryTotal) int {
		return strings.Compare(a.Category.Name, b.Category.Name)
	})
	return out, nil
}

func (s *Store) Option(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.options[name]
	return v, ok, nil
}

func (s *Store) SetOption(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[name] = value
	return nil
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
