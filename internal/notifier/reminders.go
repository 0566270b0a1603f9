package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/gate"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

// WeekReader is the part of the store reminders need.
type WeekReader interface {
	GetWeek(ctx context.Context, userID string, w week.ID) (models.Week, error)
}

type Reminder struct {
	Flow models.Flow
	Week week.ID
	Text string
}

// Reminders lists the flows worth announcing at now. With onlyNew set, a flow
// is announced only during the minute its window opens; otherwise any open
// window whose week is not done yet is announced.
func Reminders(ctx context.Context, r WeekReader, userID string, ws gate.Windows, now time.Time, loc *time.Location, onlyNew bool) ([]Reminder, error) {
	var out []Reminder
	for _, flow := range []models.Flow{models.FlowPlanning, models.FlowReview} {
		if !ws.IsWindowOpen(flow, now, loc) {
			continue
		}
		if onlyNew && !justOpened(ws, flow, now, loc) {
			continue
		}

		w := ws.CurrentWeek(flow, now, loc)
		wk, err := r.GetWeek(ctx, userID, w)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to load week %s: %w", w, err)
		}

		switch {
		case flow == models.FlowPlanning && !wk.IsPlanned():
			out = append(out, Reminder{Flow: flow, Week: w, Text: fmt.Sprintf("Planning for %s is open. Run 'tandem plan'.", w)})
		case flow == models.FlowReview && !wk.IsReviewed():
			out = append(out, Reminder{Flow: flow, Week: w, Text: fmt.Sprintf("Time to review %s. The window closes %s.", w, ws.ReviewCloses)})
		}
	}
	return out, nil
}

func justOpened(ws gate.Windows, flow models.Flow, now time.Time, loc *time.Location) bool {
	return !ws.NextOpening(flow, now.Add(-time.Minute), loc).After(now)
}
