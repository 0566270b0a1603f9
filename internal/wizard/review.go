package wizard

import (
	"context"
	"strconv"
	"strings"

	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/models"
)

func (c *Controller) handleReview(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case ModeSelected:
		if c.rec.Step != models.StepModeSelect {
			return ErrInvalidEvent
		}
		if !e.Mode.Valid() {
			return c.invalid("mode", "choose solo or together")
		}
		c.rec.Mode = e.Mode
		c.forward()
		return c.settle(ctx)
	case RatingSelected:
		if c.rec.Step != models.StepRating {
			return ErrInvalidEvent
		}
		if e.Rating < constants.MinRating || e.Rating > constants.MaxRating {
			return c.invalid("rating", "rating must be between %d and %d", constants.MinRating, constants.MaxRating)
		}
		rating := e.Rating
		c.rec.Rating = &rating
		return c.apply(ctx, c.weekReviewOp("save the rating"))
	case NoteChanged:
		if c.rec.Step != models.StepRating {
			return ErrInvalidEvent
		}
		c.rec.Note = strings.TrimSpace(e.Note)
		return c.apply(ctx, c.weekReviewOp("save the note"))
	case RatingConfirmed:
		if c.rec.Step != models.StepRating {
			return ErrInvalidEvent
		}
		if c.rec.Rating == nil {
			return c.invalid("rating", "choose a rating between %d and %d", constants.MinRating, constants.MaxRating)
		}
		c.forward()
		return c.settle(ctx)
	case OutcomeSelected:
		if c.rec.Step != models.StepTaskReview {
			return ErrInvalidEvent
		}
		return c.recordOutcome(ctx, e)
	case QuickFinish:
		if isTerminal(c.rec.Step) {
			return ErrInvalidEvent
		}
		return c.quickFinish(ctx)
	}
	return ErrInvalidEvent
}

// weekReviewOp writes the rating, note, and mode as they stand now.
func (c *Controller) weekReviewOp(name string) retryOp {
	user, w := c.cfg.UserID, c.cfg.WeekID
	rating, note, mode := copyInt(c.rec.Rating), c.rec.Note, c.rec.Mode
	return retryOp{
		name: name,
		run: func(ctx context.Context) error {
			return c.deps.Store.UpdateWeekReview(ctx, user, w, rating, note, mode)
		},
	}
}

func (c *Controller) recordOutcome(ctx context.Context, e OutcomeSelected) error {
	if !e.Status.IsOutcome() {
		return c.invalid("outcome", "outcome must be completed, tried, or skipped")
	}
	task, ok := c.current()
	if !ok {
		return ErrInvalidEvent
	}

	id, status := task.ID, e.Status
	note := strings.TrimSpace(e.Note)
	_, hadNote := c.rec.TaskNotes[id]
	c.rec.Outcomes[id] = status
	if note != "" {
		c.rec.TaskNotes[id] = note
	} else {
		delete(c.rec.TaskNotes, id)
	}
	c.applied[id] = false
	writeNote := note != "" || hadNote || task.OutcomeNote != ""

	return c.apply(ctx, retryOp{
		name: "save the outcome for " + strconv.Quote(task.Title),
		run: func(ctx context.Context) error {
			if err := c.deps.Store.UpdateTaskStatus(ctx, id, status); err != nil {
				return err
			}
			if writeNote {
				return c.deps.Store.UpdateTaskOutcomeNote(ctx, id, note)
			}
			return nil
		},
		then: func() {
			c.applied[id] = true
			c.rec.CurrentIndex++
		},
	})
}

// quickFinish marks every task without an outcome as skipped, re-issues any
// recorded outcome that never reached the store, and completes the review.
func (c *Controller) quickFinish(ctx context.Context) error {
	updates := make(map[string]models.TaskStatus)
	var order []string
	for _, t := range c.in.ReviewTasks {
		if o, ok := c.rec.Outcomes[t.ID]; ok {
			if !c.applied[t.ID] && t.Status != o {
				updates[t.ID] = o
				order = append(order, t.ID)
			}
			continue
		}
		if t.Status.IsOutcome() {
			continue
		}
		c.rec.Outcomes[t.ID] = models.TaskStatusSkipped
		updates[t.ID] = models.TaskStatusSkipped
		order = append(order, t.ID)
	}
	if c.rec.Mode == "" {
		c.rec.Mode = models.ReviewModeSolo
	}
	c.moveTo(c.seq.Terminal())

	return c.apply(ctx, retryOp{
		name: "skip the remaining tasks",
		run: func(ctx context.Context) error {
			for _, id := range order {
				if err := c.deps.Store.UpdateTaskStatus(ctx, id, updates[id]); err != nil {
					return err
				}
			}
			return nil
		},
		then: func() {
			for _, id := range order {
				c.applied[id] = true
			}
		},
	})
}
