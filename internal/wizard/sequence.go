package wizard

import "github.com/julianstephens/tandem/internal/models"

// Sequence is the ordered list of steps one session walks through.
type Sequence []models.Step

// PlanningSequence omits ROLLOVER and PARTNER_REQUESTS when they have nothing to show.
func PlanningSequence(rolloverCount, requestCount int) Sequence {
	seq := Sequence{}
	if rolloverCount > 0 {
		seq = append(seq, models.StepRollover)
	}
	seq = append(seq, models.StepAddTasks)
	if requestCount > 0 {
		seq = append(seq, models.StepPartnerRequests)
	}
	return append(seq, models.StepConfirmation)
}

// ReviewSequence omits TASK_REVIEW when there are no tasks to review.
func ReviewSequence(taskCount int) Sequence {
	seq := Sequence{models.StepModeSelect, models.StepRating}
	if taskCount > 0 {
		seq = append(seq, models.StepTaskReview)
	}
	return append(seq, models.StepSummary)
}

// canonical is each step's position in its flow's full sequence.
var canonical = map[models.Step]int{
	models.StepRollover:        0,
	models.StepAddTasks:        1,
	models.StepPartnerRequests: 2,
	models.StepConfirmation:    3,
	models.StepModeSelect:      0,
	models.StepRating:          1,
	models.StepTaskReview:      2,
	models.StepSummary:         3,
}

func (s Sequence) IndexOf(step models.Step) int {
	for i, st := range s {
		if st == step {
			return i
		}
	}
	return -1
}

func (s Sequence) Contains(step models.Step) bool {
	return s.IndexOf(step) >= 0
}

func (s Sequence) First() models.Step {
	return s[0]
}

func (s Sequence) Terminal() models.Step {
	return s[len(s)-1]
}

// Clamp maps step onto the sequence: the step itself when present, otherwise the
// first member at or after its canonical position, otherwise the last member.
// Steps the sequence's flow does not know map to the first member.
//
// A step that dropped out moves forward, so a planning session saved on
// PARTNER_REQUESTS whose requests have since been withdrawn resumes on
// CONFIRMATION, and Open commits it immediately.
func (s Sequence) Clamp(step models.Step) models.Step {
	if s.Contains(step) {
		return step
	}
	pos, ok := canonical[step]
	if !ok || flowOf(step) != flowOf(s.First()) {
		return s.First()
	}
	for _, st := range s {
		if canonical[st] >= pos {
			return st
		}
	}
	return s.Terminal()
}

func flowOf(step models.Step) models.Flow {
	switch step {
	case models.StepModeSelect, models.StepRating, models.StepTaskReview, models.StepSummary:
		return models.FlowReview
	}
	return models.FlowPlanning
}

func isItemStep(step models.Step) bool {
	switch step {
	case models.StepRollover, models.StepPartnerRequests, models.StepTaskReview:
		return true
	}
	return false
}

func isTerminal(step models.Step) bool {
	return step == models.StepConfirmation || step == models.StepSummary
}
