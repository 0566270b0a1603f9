package wizard

import "github.com/julianstephens/tandem/internal/models"

// Event is a user action sent to a Controller. The set is closed.
type Event interface {
	isEvent()
}

// Planning events.
type (
	// RolloverAccepted copies the current rollover candidate into this week.
	RolloverAccepted struct{}
	// RolloverSkipped leaves the current rollover candidate behind.
	RolloverSkipped struct{}
	// TaskSubmitted creates a new task for this week.
	TaskSubmitted struct {
		Title     string
		Notes     string
		OwnerKind models.OwnerKind
	}
	DoneAddingTasks struct{}
	RequestAccepted struct{}
	// RequestDiscussed keeps the request pending until the couple talks it over.
	RequestDiscussed struct{}
	RequestDeclined  struct{}
)

// Review events.
type (
	ModeSelected struct {
		Mode models.ReviewMode
	}
	RatingSelected struct {
		Rating int
	}
	NoteChanged struct {
		Note string
	}
	RatingConfirmed struct{}
	OutcomeSelected struct {
		Status models.TaskStatus
		Note   string
	}
	// QuickFinish skips every task still lacking an outcome and completes the review.
	QuickFinish struct{}
)

// Navigation events shared by both flows.
type (
	Back         struct{}
	ExitWithSave struct{}
	Discard      struct{}
	// Retry re-issues the last store mutation that failed.
	Retry struct{}
)

func (RolloverAccepted) isEvent() {}
func (RolloverSkipped) isEvent()  {}
func (TaskSubmitted) isEvent()    {}
func (DoneAddingTasks) isEvent()  {}
func (RequestAccepted) isEvent()  {}
func (RequestDiscussed) isEvent() {}
func (RequestDeclined) isEvent()  {}
func (ModeSelected) isEvent()     {}
func (RatingSelected) isEvent()   {}
func (NoteChanged) isEvent()      {}
func (RatingConfirmed) isEvent()  {}
func (OutcomeSelected) isEvent()  {}
func (QuickFinish) isEvent()      {}
func (Back) isEvent()             {}
func (ExitWithSave) isEvent()     {}
func (Discard) isEvent()          {}
func (Retry) isEvent()            {}
