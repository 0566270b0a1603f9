package wizard

import (
	"context"
	"strconv"
	"strings"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
)

func (c *Controller) handlePlanning(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case RolloverAccepted:
		if c.rec.Step != models.StepRollover {
			return ErrInvalidEvent
		}
		return c.acceptRollover(ctx)
	case RolloverSkipped:
		if c.rec.Step != models.StepRollover {
			return ErrInvalidEvent
		}
		return c.skipRollover(ctx)
	case TaskSubmitted:
		if c.rec.Step != models.StepAddTasks {
			return ErrInvalidEvent
		}
		return c.submitTask(ctx, e)
	case DoneAddingTasks:
		if c.rec.Step != models.StepAddTasks {
			return ErrInvalidEvent
		}
		c.forward()
		return c.settle(ctx)
	case RequestAccepted:
		return c.decideRequest(ctx, progress.DecisionAccepted)
	case RequestDiscussed:
		return c.decideRequest(ctx, progress.DecisionDiscussed)
	case RequestDeclined:
		return c.decideRequest(ctx, progress.DecisionDeclined)
	}
	return ErrInvalidEvent
}

// acceptRollover copies the current candidate into this week. The source task
// is never modified.
func (c *Controller) acceptRollover(ctx context.Context) error {
	src, ok := c.current()
	if !ok {
		return ErrInvalidEvent
	}
	c.rec.Decisions[src.ID] = progress.DecisionAccepted

	if c.applied[src.ID] {
		c.rec.CurrentIndex++
		return c.settle(ctx)
	}

	kind := models.OwnerSelf
	if src.OwnerKind == models.OwnerShared {
		kind = models.OwnerShared
	}
	task := c.newTask(src.Title, src.Notes, kind)
	sourceID := src.ID
	task.RolledOverFrom = &sourceID

	return c.apply(ctx, retryOp{
		name: "roll over " + strconv.Quote(src.Title),
		run: func(ctx context.Context) error {
			return c.deps.Store.AddTask(ctx, task)
		},
		then: func() {
			c.applied[sourceID] = true
			c.rec.RolledOver++
			c.rec.CurrentIndex++
		},
	})
}

func (c *Controller) skipRollover(ctx context.Context) error {
	src, ok := c.current()
	if !ok {
		return ErrInvalidEvent
	}
	if c.applied[src.ID] {
		return c.invalid("rollover", "%s was already rolled over", strconv.Quote(src.Title))
	}
	c.rec.Decisions[src.ID] = progress.DecisionSkipped
	c.rec.CurrentIndex++
	return c.settle(ctx)
}

func (c *Controller) submitTask(ctx context.Context, e TaskSubmitted) error {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return c.invalid("title", "task title cannot be empty")
	}
	kind := e.OwnerKind
	if kind == "" {
		kind = models.OwnerSelf
	}
	if !kind.Valid() {
		return c.invalid("owner", "unknown owner %q", kind)
	}
	if kind != models.OwnerSelf && c.partner == "" {
		return c.invalid("owner", "pair with a partner before assigning %s tasks", kind)
	}

	task := c.newTask(title, strings.TrimSpace(e.Notes), kind)
	if kind == models.OwnerPartner {
		// Tasks for the partner wait for them to accept.
		task.OwnerID = c.partner
		task.Status = models.TaskStatusPendingAcceptance
	}

	return c.apply(ctx, retryOp{
		name: "add " + strconv.Quote(title),
		run: func(ctx context.Context) error {
			return c.deps.Store.AddTask(ctx, task)
		},
		then: func() {
			c.rec.TasksAdded++
		},
	})
}

func (c *Controller) decideRequest(ctx context.Context, d progress.Decision) error {
	if c.rec.Step != models.StepPartnerRequests {
		return ErrInvalidEvent
	}
	req, ok := c.current()
	if !ok {
		return ErrInvalidEvent
	}

	wasAccepted := c.rec.Decisions[req.ID] == progress.DecisionAccepted && c.applied[req.ID]
	c.rec.Decisions[req.ID] = d
	c.applied[req.ID] = false

	status := models.TaskStatusPendingAcceptance
	switch d {
	case progress.DecisionAccepted:
		status = models.TaskStatusPending
	case progress.DecisionDeclined:
		status = models.TaskStatusDeclined
	}
	id := req.ID

	return c.apply(ctx, retryOp{
		name: "update " + strconv.Quote(req.Title),
		run: func(ctx context.Context) error {
			return c.deps.Store.UpdateTaskStatus(ctx, id, status)
		},
		then: func() {
			c.applied[id] = true
			switch {
			case d == progress.DecisionAccepted && !wasAccepted:
				c.rec.Accepted++
			case d != progress.DecisionAccepted && wasAccepted:
				c.rec.Accepted--
			}
			c.rec.CurrentIndex++
		},
	})
}
