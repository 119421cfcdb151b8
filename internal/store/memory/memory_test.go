package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"manageexpense/internal/core"
	"manageexpense/internal/store"
)

var _ store.Store = (*Store)(nil)

func input(y, m, d int, desc string, cents int64) core.ExpenseInput {
	return core.ExpenseInput{Date: core.NewDate(y, m, d), Description: desc, Amount: core.Money{Cents: cents}}
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	e, err := s.Add(ctx, input(2024, 1, 10, "Groceries", 1999))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() || !e.CreatedAt.Equal(e.UpdatedAt) {
		t.Fatalf("unexpected added expense: %+v", e)
	}

	got, err := s.Get(ctx, e.ID)
	if err != nil || got != e {
		t.Fatalf("get: got=%+v err=%v", got, err)
	}

	upd, err := s.Update(ctx, e.ID, input(2024, 1, 11, "Groceries and wine", 2999))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Version != e.Version+1 {
		t.Fatalf("expected version bump, got %d -> %d", e.Version, upd.Version)
	}
	if upd.ID != e.ID || upd.Amount.Cents != 2999 || upd.Description != "Groceries and wine" || !upd.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("unexpected updated expense: %+v", upd)
	}

	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, e.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Update(ctx, "missing", input(2024, 1, 1, "x", 1)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete: expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := New()
	cases := []struct {
		name string
		in   core.ExpenseInput
		want error
	}{
		{"zero date", core.ExpenseInput{Description: "x", Amount: core.Money{Cents: 1}}, core.ErrInvalidDate},
		{"blank description", input(2024, 1, 1, "  ", 1), core.ErrEmptyDescription},
		{"zero amount", input(2024, 1, 1, "x", 0), core.ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Add(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	items, _ := s.List(ctx)
	if len(items) != 0 {
		t.Fatalf("invalid input must not be stored, got %d items", len(items))
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, in := range []core.ExpenseInput{
		input(2024, 1, 5, "b", 100),
		input(2024, 2, 1, "c", 100),
		input(2023, 12, 31, "a", 100),
	} {
		if _, err := s.Add(ctx, in); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	items, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, e := range items {
		got = append(got, e.Description)
	}
	if len(got) != 3 || got[0] != "c" || got[1] != "b" || got[2] != "a" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestMemoryStoreConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(ctx, input(2024, 1, 1, "x", 1))
		}()
	}
	wg.Wait()
	items, _ := s.List(ctx)
	if len(items) != 50 {
		t.Fatalf("expected 50 items, got %d", len(items))
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	// No file -> empty store
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if items, _ := s.List(context.Background()); len(items) != 0 {
		t.Fatalf("expected empty store, got %d", len(items))
	}

	seed := `[
		{"id": "e1", "date": "2024-01-10", "description": "Groceries", "amount": 19.99},
		{"id": "e2", "date": "bad", "description": "skipped", "amount": 1},
		{"id": "e3", "date": "2024-01-11", "description": "", "amount": 1},
		{"date": "2024-01-12", "description": "No id", "amount": 5}
	]`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	items, _ := s.List(context.Background())
	if len(items) != 2 {
		t.Fatalf("expected 2 seeded items, got %d: %+v", len(items), items)
	}
	e, err := s.Get(context.Background(), "e1")
	if err != nil || e.Amount.Cents != 1999 || core.FormatDate(e.Date) != "2024-01-10" {
		t.Fatalf("unexpected seeded expense: %+v err=%v", e, err)
	}
	if items[0].Description != "No id" || items[0].ID == "" {
		t.Fatalf("expected generated id for newest item, got %+v", items[0])
	}

	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte("{"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("expected decode error")
	}
}
