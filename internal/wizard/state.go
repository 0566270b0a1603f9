package wizard

import (
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/week"
)

// State is a read-only snapshot of a session. Maps and slices are copies.
type State struct {
	Flow     models.Flow
	UserID   string
	WeekID   week.ID
	Sequence Sequence
	Step     models.Step
	// Index is the position within the current step's items.
	Index int

	Rollover []models.Task
	Requests []models.Task
	Tasks    []models.Task

	Mode      models.ReviewMode
	Rating    *int
	Note      string
	Outcomes  map[string]models.TaskStatus
	TaskNotes map[string]string
	Decisions map[string]progress.Decision

	TasksAdded int
	RolledOver int
	Accepted   int

	Streak     int
	Completion int
	HasPartner bool
	CanRetry   bool
	Completed  bool
}

// Items returns the list the current step iterates over, if any.
func (s State) Items() []models.Task {
	switch s.Step {
	case models.StepRollover:
		return s.Rollover
	case models.StepPartnerRequests:
		return s.Requests
	case models.StepTaskReview:
		return s.Tasks
	}
	return nil
}

// Item returns the task the current step is asking about.
func (s State) Item() (models.Task, bool) {
	items := s.Items()
	if s.Index < 0 || s.Index >= len(items) {
		return models.Task{}, false
	}
	return items[s.Index], true
}

func cloneTasks(tasks []models.Task) []models.Task {
	if tasks == nil {
		return nil
	}
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
