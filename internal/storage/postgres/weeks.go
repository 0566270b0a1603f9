package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

const weekColumns = `user_id, week_id, start_date, end_date, planned_at, rating, rating_note,
       review_mode, reviewed_at, created_at`

func (s *Store) insertWeek(ctx context.Context, userID string, w week.ID) error {
	if !w.Valid() {
		return fmt.Errorf("invalid week %q", w)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO weeks (user_id, week_id, start_date, end_date, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, week_id) DO NOTHING`,
		userID, string(w),
		w.Start(time.UTC).Format(constants.DateFormat),
		w.End(time.UTC).Format(constants.DateFormat),
		time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create week %s: %w", w, err)
	}
	return nil
}

func (s *Store) EnsureWeek(ctx context.Context, userID string, w week.ID) (models.Week, error) {
	if err := s.insertWeek(ctx, userID, w); err != nil {
		return models.Week{}, err
	}
	return s.GetWeek(ctx, userID, w)
}

func (s *Store) GetWeek(ctx context.Context, userID string, w week.ID) (models.Week, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+weekColumns+` FROM weeks WHERE user_id = $1 AND week_id = $2`,
		userID, string(w))
	wk, err := scanWeek(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Week{}, fmt.Errorf("week %s: %w", w, storage.ErrNotFound)
	}
	return wk, err
}

func (s *Store) GetPreviousWeek(ctx context.Context, userID string, w week.ID) (models.Week, error) {
	return s.GetWeek(ctx, userID, w.Previous())
}

func (s *Store) GetLatestWeek(ctx context.Context, userID string, asOf week.ID) (models.Week, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+weekColumns+` FROM weeks
WHERE user_id = $1 AND week_id <= $2 ORDER BY week_id DESC LIMIT 1`, userID, string(asOf))
	wk, err := scanWeek(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Week{}, fmt.Errorf("no week on or before %s: %w", asOf, storage.ErrNotFound)
	}
	return wk, err
}

func (s *Store) UpdateWeekReview(ctx context.Context, userID string, w week.ID, rating *int, note string, mode models.ReviewMode) error {
	if rating != nil && (*rating < constants.MinRating || *rating > constants.MaxRating) {
		return fmt.Errorf("rating must be between %d and %d", constants.MinRating, constants.MaxRating)
	}
	if err := s.insertWeek(ctx, userID, w); err != nil {
		return err
	}

	var r sql.NullInt64
	if rating != nil {
		r = sql.NullInt64{Int64: int64(*rating), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE weeks SET rating = $1, rating_note = $2, review_mode = $3
WHERE user_id = $4 AND week_id = $5`,
		r, note, string(mode), userID, string(w))
	if err != nil {
		return fmt.Errorf("failed to update review for week %s: %w", w, err)
	}
	return nil
}

func (s *Store) MarkPlanned(ctx context.Context, userID string, w week.ID, at time.Time) error {
	return s.mark(ctx, "planned_at", userID, w, at)
}

func (s *Store) MarkReviewed(ctx context.Context, userID string, w week.ID, at time.Time) error {
	return s.mark(ctx, "reviewed_at", userID, w, at)
}

func (s *Store) mark(ctx context.Context, column, userID string, w week.ID, at time.Time) error {
	if err := s.insertWeek(ctx, userID, w); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE weeks SET `+column+` = COALESCE(`+column+`, $1) WHERE user_id = $2 AND week_id = $3`,
		at.UTC(), userID, string(w))
	if err != nil {
		return fmt.Errorf("failed to set %s for week %s: %w", column, w, err)
	}
	return nil
}

func scanWeek(row scanner) (models.Week, error) {
	var wk models.Week
	var weekID, reviewMode string
	var plannedAt, reviewedAt sql.NullTime
	var rating sql.NullInt64

	err := row.Scan(&wk.UserID, &weekID, &wk.StartDate, &wk.EndDate, &plannedAt, &rating,
		&wk.RatingNote, &reviewMode, &reviewedAt, &wk.CreatedAt)
	if err != nil {
		return models.Week{}, err
	}

	wk.ID = week.ID(weekID)
	wk.ReviewMode = models.ReviewMode(reviewMode)
	if rating.Valid {
		v := int(rating.Int64)
		wk.Rating = &v
	}
	wk.PlannedAt = timePtr(plannedAt)
	wk.ReviewedAt = timePtr(reviewedAt)
	wk.CreatedAt = wk.CreatedAt.UTC()
	return wk, nil
}
