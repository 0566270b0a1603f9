package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

const taskColumns = `id, title, notes, owner_id, owner_kind, created_by, week_id, status,
		       rolled_over_from, outcome_note, created_at, updated_at`

func (s *Store) AddTask(ctx context.Context, task models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		task.ID, task.Title, task.Notes, task.OwnerID, string(task.OwnerKind), task.CreatedBy,
		string(task.WeekID), string(task.Status), nullString(task.RolledOverFrom), task.OutcomeNote,
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return t, err
}

func (s *Store) GetTasksForWeek(ctx context.Context, ownerID string, w week.ID) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = ? AND week_id = ? ORDER BY created_at, id`, ownerID, string(w))
}

func (s *Store) GetTasksByStatusAndOwner(ctx context.Context, ownerID string, status models.TaskStatus) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE owner_id = ? AND status = ? ORDER BY created_at, id`, ownerID, string(status))
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid task status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	return requireRow(res, "task", id)
}

func (s *Store) UpdateTaskOutcomeNote(ctx context.Context, id string, note string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET outcome_note = ?, updated_at = ? WHERE id = ?`,
		note, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update task note: %w", err)
	}
	return requireRow(res, "task", id)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (models.Task, error) {
	var t models.Task
	var ownerKind, weekID, status, createdAt, updatedAt string
	var rolledOverFrom sql.NullString

	err := row.Scan(
		&t.ID, &t.Title, &t.Notes, &t.OwnerID, &ownerKind, &t.CreatedBy, &weekID, &status,
		&rolledOverFrom, &t.OutcomeNote, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	t.OwnerKind = models.OwnerKind(ownerKind)
	t.WeekID = week.ID(weekID)
	t.Status = models.TaskStatus(status)
	t.RolledOverFrom = stringPtr(rolledOverFrom)

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Task{}, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Task{}, err
	}
	return t, nil
}
