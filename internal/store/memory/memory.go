package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"manageexpense/internal/core"
	"manageexpense/internal/store"
)

// SeedFile is the name of the optional seed file looked up by NewFromFiles.
const SeedFile = "expenses.json"

type Store struct {
	mu    sync.Mutex
	items map[string]core.Expense
	now   func() time.Time
	newID func() string
}

func New(seed ...core.Expense) *Store {
	s := &Store{
		items: make(map[string]core.Expense, len(seed)),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, e := range seed {
		if e.ID == "" {
			e.ID = s.newID()
		}
		if e.Version == 0 {
			e.Version = 1
		}
		s.items[e.ID] = e
	}
	return s
}

// seedRecord is the on-disk shape of one seeded expense.
type seedRecord struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// NewFromFiles loads base/expenses.json when present. A missing file yields
// an empty store; malformed records are skipped.
func NewFromFiles(base string) (*Store, error) {
	raw, err := os.ReadFile(filepath.Join(base, SeedFile))
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []seedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	seed := make([]core.Expense, 0, len(records))
	for _, r := range records {
		d, err := time.Parse(core.DateLayout, r.Date)
		if err != nil {
			continue
		}
		amount, err := core.MoneyFromFloat(r.Amount)
		if err != nil {
			continue
		}
		in := core.ExpenseInput{Date: core.DateOf(d), Description: r.Description, Amount: amount}
		if in.Validate() != nil {
			continue
		}
		seed = append(seed, core.Expense{
			ID:          r.ID,
			Date:        in.Date,
			Description: in.Description,
			Amount:      in.Amount,
			CreatedAt:   d,
			UpdatedAt:   d,
		})
	}
	return New(seed...), nil
}

func (s *Store) Add(_ context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e := core.Expense{
		ID:          s.newID(),
		Date:        in.Date,
		Description: in.Description,
		Amount:      in.Amount,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) Update(_ context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	e.Date = in.Date
	e.Description = in.Description
	e.Amount = in.Amount
	e.Version++
	e.UpdatedAt = s.now()
	s.items[id] = e
	return e, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

// List returns a snapshot, newest date first.
func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	s.mu.Unlock()
	store.SortNewestFirst(out)
	return out, nil
}

// Close is a no-op; it lets the memory store stand in wherever a closable
// store is expected.
func (s *Store) Close() error { return nil }
