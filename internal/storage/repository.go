package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"manageexpense/internal/core"
	"manageexpense/internal/store"

	_ "modernc.org/sqlite"
)

// timestampLayout has a fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const expenseColumns = `id, date, description, amount_cents, version, created_at, updated_at`

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and keeps in-memory databases
	// shared between statements.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Add implements store.ExpenseWriter.
func (r *SQLiteRepository) Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := r.now().UTC()
	e := core.Expense{
		ID:          uuid.NewString(),
		Date:        in.Date,
		Description: in.Description,
		Amount:      in.Amount,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, core.FormatDate(e.Date), e.Description, e.Amount.Cents, e.Version,
		now.Format(timestampLayout), now.Format(timestampLayout))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", core.FormatDate(e.Date))

	return e, nil
}

// Update implements store.ExpenseWriter.
func (r *SQLiteRepository) Update(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET date = ?, description = ?, amount_cents = ?, version = version + 1, updated_at = ?
		 WHERE id = ?`,
		core.FormatDate(in.Date), in.Description, in.Amount.Cents, now.Format(timestampLayout), id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	} else if n == 0 {
		return core.Expense{}, store.ErrNotFound
	}

	e, err := r.Get(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	slog.InfoContext(ctx, "Expense updated in SQLite", "id", id, "version", e.Version)
	return e, nil
}

// Delete implements store.ExpenseWriter.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return nil
}

// Get implements store.ExpenseReader.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// List implements store.ExpenseReader.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Expense, error) {
	return r.query(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, created_at DESC`)
}

// PendingSync returns expenses whose latest version has not been mirrored
// yet, oldest change first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Expense, error) {
	return r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE synced_version < version ORDER BY updated_at ASC LIMIT ?`,
		limit)
}

// MarkSynced records that the given version of an expense has been
// mirrored. Older versions never overwrite a newer mark.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET synced_version = ? WHERE id = ? AND synced_version < ?`,
		version, id, version)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.DebugContext(ctx, "Expense marked as synced", "id", id, "version", version)
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                  core.Expense
		date, created, upd string
	)
	if err := s.Scan(&e.ID, &date, &e.Description, &e.Amount.Cents, &e.Version, &created, &upd); err != nil {
		return core.Expense{}, err
	}
	d, err := time.Parse(core.DateLayout, date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	e.Date = core.DateOf(d)
	if e.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(timestampLayout, upd); err != nil {
		return core.Expense{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return e, nil
}
