package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/tandem/internal/week"
)

type TaskStatus string

const (
	TaskStatusPending           TaskStatus = "pending"
	TaskStatusPendingAcceptance TaskStatus = "pending_acceptance"
	TaskStatusCompleted         TaskStatus = "completed"
	TaskStatusTried             TaskStatus = "tried"
	TaskStatusSkipped           TaskStatus = "skipped"
	TaskStatusDeclined          TaskStatus = "declined"
)

// IsTerminal reports whether the status closes a task for rollover purposes.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusTried, TaskStatusSkipped:
		return true
	}
	return false
}

// IsOutcome reports whether the status can be chosen as a review outcome.
func (s TaskStatus) IsOutcome() bool {
	return s.IsTerminal()
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusPendingAcceptance, TaskStatusCompleted,
		TaskStatusTried, TaskStatusSkipped, TaskStatusDeclined:
		return true
	}
	return false
}

type OwnerKind string

const (
	OwnerSelf    OwnerKind = "self"
	OwnerPartner OwnerKind = "partner"
	OwnerShared  OwnerKind = "shared"
)

func (k OwnerKind) Valid() bool {
	return k == OwnerSelf || k == OwnerPartner || k == OwnerShared
}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Notes          string     `json:"notes,omitempty"`
	OwnerID        string     `json:"owner_id"`
	OwnerKind      OwnerKind  `json:"owner_kind"`
	CreatedBy      string     `json:"created_by"`
	WeekID         week.ID    `json:"week_id"`
	Status         TaskStatus `json:"status"`
	RolledOverFrom *string    `json:"rolled_over_from,omitempty"`
	OutcomeNote    string     `json:"outcome_note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsRollover reports whether the task was created from an earlier week's task.
func (t Task) IsRollover() bool {
	return t.RolledOverFrom != nil && *t.RolledOverFrom != ""
}

// Validate checks the fields every stored task must carry.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title cannot be empty")
	}
	if t.OwnerID == "" {
		return fmt.Errorf("task owner is required")
	}
	if !t.OwnerKind.Valid() {
		return fmt.Errorf("invalid owner kind %q", t.OwnerKind)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid task status %q", t.Status)
	}
	if !t.WeekID.Valid() {
		return fmt.Errorf("invalid week %q", t.WeekID)
	}
	if t.RolledOverFrom != nil && *t.RolledOverFrom == t.ID {
		return fmt.Errorf("task cannot roll over from itself")
	}
	return nil
}
