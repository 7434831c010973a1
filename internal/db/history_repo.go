package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nodestack/internal/errors"
	"nodestack/internal/types"
)

// RestartPlanRow is one persisted restart plan summary
type RestartPlanRow struct {
	ID          string    `db:"id" json:"id"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
	Restarted   int       `db:"restarted" json:"restarted"`
	Failed      int       `db:"failed" json:"failed"`
	Skipped     int       `db:"skipped" json:"skipped"`
}

// RestartItemRow is one persisted per-service outcome
type RestartItemRow struct {
	ID      int64  `db:"id" json:"-"`
	PlanID  string `db:"plan_id" json:"plan_id"`
	Service string `db:"service" json:"service"`
	Outcome string `db:"outcome" json:"outcome"`
	Detail  string `db:"detail" json:"detail,omitempty"`
}

// HistoryRepository persists restart results. Health records are never
// persisted; restart accounting is the only state that outlives a cycle.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record stores a completed restart result
func (r *HistoryRepository) Record(ctx context.Context, result *types.RestartResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO restart_plans (id, started_at, completed_at, restarted, failed, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.PlanID, result.StartedAt, result.CompletedAt,
		len(result.Restarted), len(result.Failed), len(result.Skipped))
	if err != nil {
		return fmt.Errorf("failed to insert restart plan: %w", err)
	}

	insert := `INSERT INTO restart_items (plan_id, service, outcome, detail) VALUES (?, ?, ?, ?)`
	for _, name := range result.Restarted {
		if _, err := tx.ExecContext(ctx, insert, result.PlanID, name, "restarted", ""); err != nil {
			return fmt.Errorf("failed to insert restart item: %w", err)
		}
	}
	for _, failure := range result.Failed {
		if _, err := tx.ExecContext(ctx, insert, result.PlanID, failure.Name, "failed", failure.Error); err != nil {
			return fmt.Errorf("failed to insert restart item: %w", err)
		}
	}
	for _, skipped := range result.Skipped {
		if _, err := tx.ExecContext(ctx, insert, result.PlanID, skipped.Name, "skipped", string(skipped.Reason)); err != nil {
			return fmt.Errorf("failed to insert restart item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restart history: %w", err)
	}

	return nil
}

// ListPlans returns recent restart plans, newest first
func (r *HistoryRepository) ListPlans(ctx context.Context, limit, offset int) ([]RestartPlanRow, error) {
	var plans []RestartPlanRow
	err := r.db.SelectContext(ctx, &plans, `
		SELECT id, started_at, completed_at, restarted, failed, skipped
		FROM restart_plans
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query restart plans: %w", err)
	}
	return plans, nil
}

// GetPlan returns one recorded plan by id
func (r *HistoryRepository) GetPlan(ctx context.Context, planID string) (RestartPlanRow, error) {
	var plan RestartPlanRow
	err := r.db.GetContext(ctx, &plan, `
		SELECT id, started_at, completed_at, restarted, failed, skipped
		FROM restart_plans
		WHERE id = ?`, planID)
	if err == sql.ErrNoRows {
		return plan, errors.New(errors.ErrPlanNotFound, "restart plan not found").
			WithContext("plan_id", planID)
	}
	if err != nil {
		return plan, fmt.Errorf("failed to query restart plan: %w", err)
	}
	return plan, nil
}

// ItemsOf returns the per-service outcomes of one plan
func (r *HistoryRepository) ItemsOf(ctx context.Context, planID string) ([]RestartItemRow, error) {
	var items []RestartItemRow
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, plan_id, service, outcome, detail
		FROM restart_items
		WHERE plan_id = ?
		ORDER BY id`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query restart items: %w", err)
	}
	return items, nil
}

// CountPlans returns the total number of persisted plans
func (r *HistoryRepository) CountPlans(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM restart_plans`); err != nil {
		return 0, fmt.Errorf("failed to count restart plans: %w", err)
	}
	return count, nil
}
