package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
)

// ProgressStore keeps wizard progress in the wizard_progress table, one row per user and flow.
type ProgressStore struct {
	db     *sql.DB
	userID string
}

var _ progress.Store = (*ProgressStore)(nil)

func (p *ProgressStore) Load(ctx context.Context, flow models.Flow) (*progress.Record, error) {
	var payload string
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM wizard_progress WHERE user_id = ? AND flow = ?`,
		p.userID, string(flow)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s progress: %w", flow, err)
	}
	return progress.Decode([]byte(payload))
}

func (p *ProgressStore) Save(ctx context.Context, rec progress.Record) error {
	rec.UserID = p.userID
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	data, err := progress.Encode(rec)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO wizard_progress (user_id, flow, week_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, flow) DO UPDATE SET
			week_id = excluded.week_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		p.userID, string(rec.Flow), string(rec.WeekID), string(data), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save %s progress: %w", rec.Flow, err)
	}
	return nil
}

func (p *ProgressStore) Clear(ctx context.Context, flow models.Flow) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM wizard_progress WHERE user_id = ? AND flow = ?`,
		p.userID, string(flow))
	if err != nil {
		return fmt.Errorf("failed to clear %s progress: %w", flow, err)
	}
	return nil
}
