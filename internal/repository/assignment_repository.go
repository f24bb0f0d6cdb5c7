package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const assignmentSchema = `CREATE TABLE IF NOT EXISTS timetable_assignments (
	id TEXT PRIMARY KEY,
	weekday TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	teacher_id TEXT NOT NULL DEFAULT '',
	group_id TEXT NOT NULL
)`

// AssignmentRepository persists snapshots of the schedule store.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// EnsureSchema creates the snapshot table when missing.
func (r *AssignmentRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, assignmentSchema); err != nil {
		return fmt.Errorf("ensure assignment schema: %w", err)
	}
	return nil
}

// List returns every persisted assignment.
func (r *AssignmentRepository) List(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT id, weekday, start_time, end_time, subject_id, teacher_id, group_id FROM timetable_assignments ORDER BY weekday, start_time, id`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceAll swaps the persisted snapshot for assignments within one transaction.
func (r *AssignmentRepository) ReplaceAll(ctx context.Context, assignments []models.Assignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_assignments`); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	if err = r.insertAssignments(ctx, tx, assignments); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) insertAssignments(ctx context.Context, exec sqlx.ExtContext, assignments []models.Assignment) error {
	for i := range assignments {
		payload := assignments[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO timetable_assignments (id, weekday, start_time, end_time, subject_id, teacher_id, group_id) VALUES (:id, :weekday, :start_time, :end_time, :subject_id, :teacher_id, :group_id)`, &payload); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}
