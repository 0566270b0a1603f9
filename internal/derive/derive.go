// Package derive answers the read-only questions a wizard needs before it can
// lay out its steps: what rolls over, what the partner asked for, and how long
// the review streak is.
package derive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

type Service struct {
	Store    storage.Provider
	Now      func() time.Time
	Location *time.Location
}

func New(store storage.Provider, loc *time.Location) *Service {
	return &Service{Store: store, Now: time.Now, Location: loc}
}

func (s *Service) now() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if s.Location != nil {
		return now().In(s.Location)
	}
	return now()
}

// IncompleteTasksOfPreviousWeek returns the user's unfinished tasks from the week
// before current, oldest first. Tasks already rolled into current are left out.
func (s *Service) IncompleteTasksOfPreviousWeek(ctx context.Context, userID string, current week.ID) ([]models.Task, error) {
	prev, err := s.Store.GetTasksForWeek(ctx, userID, current.Previous())
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for %s: %w", current.Previous(), err)
	}
	if len(prev) == 0 {
		return nil, nil
	}

	existing, err := s.Store.GetTasksForWeek(ctx, userID, current)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for %s: %w", current, err)
	}
	rolled := make(map[string]bool, len(existing))
	for _, t := range existing {
		if t.IsRollover() {
			rolled[*t.RolledOverFrom] = true
		}
	}

	var out []models.Task
	for _, t := range prev {
		if t.Status.IsTerminal() || t.Status == models.TaskStatusDeclined || t.Status == models.TaskStatusPendingAcceptance {
			continue
		}
		if rolled[t.ID] {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// PendingPartnerRequests returns tasks the partner proposed for the user that
// are still awaiting a decision, oldest first.
func (s *Service) PendingPartnerRequests(ctx context.Context, userID string) ([]models.Task, error) {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !user.HasPartner() {
		return nil, nil
	}

	tasks, err := s.Store.GetTasksByStatusAndOwner(ctx, userID, models.TaskStatusPendingAcceptance)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner requests: %w", err)
	}

	var out []models.Task
	for _, t := range tasks {
		if t.CreatedBy == *user.PartnerID {
			out = append(out, t)
		}
	}
	return out, nil
}

// CurrentStreak counts consecutive reviewed weeks, walking back from the most
// recently started week on record. The first missing or unreviewed week ends it.
func (s *Service) CurrentStreak(ctx context.Context, userID string) (int, error) {
	latest, err := s.Store.GetLatestWeek(ctx, userID, week.Of(s.now()))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load latest week: %w", err)
	}

	streak := 0
	current := latest
	for current.IsReviewed() {
		streak++
		prev, err := s.Store.GetPreviousWeek(ctx, userID, current.ID)
		if errors.Is(err, storage.ErrNotFound) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to load week before %s: %w", current.ID, err)
		}
		current = prev
	}
	return streak, nil
}

// TasksForReview returns the user's tasks in w that can receive an outcome.
func (s *Service) TasksForReview(ctx context.Context, userID string, w week.ID) ([]models.Task, error) {
	tasks, err := s.Store.GetTasksForWeek(ctx, userID, w)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for %s: %w", w, err)
	}
	var out []models.Task
	for _, t := range tasks {
		if t.Status == models.TaskStatusDeclined || t.Status == models.TaskStatusPendingAcceptance {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Inputs bundles everything a wizard derives at session start.
type Inputs struct {
	Rollover    []models.Task
	Requests    []models.Task
	ReviewTasks []models.Task
	Week        models.Week
	Streak      int
}

// Snapshot creates the week record if needed, then runs the queries a flow
// needs concurrently.
func (s *Service) Snapshot(ctx context.Context, userID string, flow models.Flow, w week.ID) (Inputs, error) {
	wk, err := s.Store.EnsureWeek(ctx, userID, w)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load week %s: %w", w, err)
	}

	in := Inputs{Week: wk}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		streak, err := s.CurrentStreak(ctx, userID)
		in.Streak = streak
		return err
	})

	switch flow {
	case models.FlowPlanning:
		g.Go(func() error {
			tasks, err := s.IncompleteTasksOfPreviousWeek(ctx, userID, w)
			in.Rollover = tasks
			return err
		})
		g.Go(func() error {
			tasks, err := s.PendingPartnerRequests(ctx, userID)
			in.Requests = tasks
			return err
		})
	case models.FlowReview:
		g.Go(func() error {
			tasks, err := s.TasksForReview(ctx, userID, w)
			in.ReviewTasks = tasks
			return err
		})
	default:
		return Inputs{}, fmt.Errorf("unknown flow %q", flow)
	}

	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

// CompletionPercent is the share of outcomes that are completed, rounded down.
// Tried and skipped never count as success.
func CompletionPercent(outcomes []models.TaskStatus) int {
	if len(outcomes) == 0 {
		return 0
	}
	done := 0
	for _, o := range outcomes {
		if o == models.TaskStatusCompleted {
			done++
		}
	}
	return done * 100 / len(outcomes)
}
