// Package store provides the SQLite-backed persistence used by the server.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/theirongolddev/envbudget/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a budget or envelope id does not exist.
var ErrNotFound = errors.New("store: not found")

// Store persists budgets and their envelopes.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at the given path.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateBudget inserts a budget and returns its id.
func (s *Store) CreateBudget(ctx context.Context, b model.NewBudget) (int64, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO budget (total_budget) VALUES (?)", b.TotalBudget)
	if err != nil {
		return 0, fmt.Errorf("inserting budget: %w", err)
	}
	return res.LastInsertId()
}

// ListBudgets returns all budgets ordered by id.
func (s *Store) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, total_budget FROM budget ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	budgets := []model.Budget{}
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.ID, &b.TotalBudget); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// DeleteBudget removes a budget and all of its envelopes. It returns the
// number of envelopes removed.
func (s *Store) DeleteBudget(ctx context.Context, id int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	// Envelopes first so the foreign key never dangles.
	res, err := tx.ExecContext(ctx, "DELETE FROM anvelopes WHERE budget_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("deleting envelopes: %w", err)
	}
	envelopes, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, "DELETE FROM budget WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("deleting budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("budget %d: %w", id, ErrNotFound)
	}

	return envelopes, tx.Commit()
}

// CreateEnvelope inserts an envelope under an existing budget and returns its id.
func (s *Store) CreateEnvelope(ctx context.Context, e model.NewEnvelope) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM budget WHERE id = ?", e.BudgetID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("budget %d: %w", e.BudgetID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO anvelopes (anvelope_name, anvelope_budget, budget_id) VALUES (?, ?, ?)",
		e.Name, e.Amount, e.BudgetID)
	if err != nil {
		return 0, fmt.Errorf("inserting envelope: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// ListEnvelopes returns the envelopes of one budget ordered by id.
func (s *Store) ListEnvelopes(ctx context.Context, budgetID int64) ([]model.RemainingBudget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, anvelope_name, anvelope_budget, budget_id
		FROM anvelopes WHERE budget_id = ? ORDER BY id`, budgetID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	envelopes := []model.RemainingBudget{}
	for rows.Next() {
		var e model.RemainingBudget
		if err := rows.Scan(&e.ID, &e.Name, &e.Amount, &e.BudgetID); err != nil {
			return nil, err
		}
		envelopes = append(envelopes, e)
	}
	return envelopes, rows.Err()
}

// AdjustEnvelope adds delta (which may be negative) to an envelope's balance.
// A result outside the int64 range is rejected with model.ErrInvalidInput.
func (s *Store) AdjustEnvelope(ctx context.Context, id, delta int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var cur int64
	err = tx.QueryRowContext(ctx, "SELECT anvelope_budget FROM anvelopes WHERE id = ?", id).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("envelope %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading envelope: %w", err)
	}

	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return fmt.Errorf("envelope %d: balance %d adjusted by %d overflows: %w",
			id, cur, delta, model.ErrInvalidInput)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE anvelopes SET anvelope_budget = ? WHERE id = ?", cur+delta, id); err != nil {
		return fmt.Errorf("updating envelope: %w", err)
	}
	return tx.Commit()
}

// DeleteEnvelope removes a single envelope.
func (s *Store) DeleteEnvelope(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM anvelopes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting envelope: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("envelope %d: %w", id, ErrNotFound)
	}
	return nil
}
