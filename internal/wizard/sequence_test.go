package wizard

import (
	"slices"
	"testing"

	"github.com/julianstephens/tandem/internal/models"
)

func TestPlanningSequence(t *testing.T) {
	tests := []struct {
		name      string
		rollovers int
		requests  int
		want      Sequence
	}{
		{"everything", 2, 1, Sequence{models.StepRollover, models.StepAddTasks, models.StepPartnerRequests, models.StepConfirmation}},
		{"no requests", 3, 0, Sequence{models.StepRollover, models.StepAddTasks, models.StepConfirmation}},
		{"no rollovers", 0, 2, Sequence{models.StepAddTasks, models.StepPartnerRequests, models.StepConfirmation}},
		{"nothing to triage", 0, 0, Sequence{models.StepAddTasks, models.StepConfirmation}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlanningSequence(tt.rollovers, tt.requests); !slices.Equal(got, tt.want) {
				t.Errorf("PlanningSequence(%d, %d) = %v, want %v", tt.rollovers, tt.requests, got, tt.want)
			}
		})
	}
}

func TestReviewSequence(t *testing.T) {
	if got, want := ReviewSequence(3), (Sequence{models.StepModeSelect, models.StepRating, models.StepTaskReview, models.StepSummary}); !slices.Equal(got, want) {
		t.Errorf("ReviewSequence(3) = %v, want %v", got, want)
	}
	if got, want := ReviewSequence(0), (Sequence{models.StepModeSelect, models.StepRating, models.StepSummary}); !slices.Equal(got, want) {
		t.Errorf("ReviewSequence(0) = %v, want %v", got, want)
	}
}

func TestSequenceClamp(t *testing.T) {
	full := PlanningSequence(1, 1)
	bare := PlanningSequence(0, 0)
	noTasks := ReviewSequence(0)

	tests := []struct {
		name string
		seq  Sequence
		step models.Step
		want models.Step
	}{
		{"member is kept", full, models.StepPartnerRequests, models.StepPartnerRequests},
		{"missing rollover moves forward", bare, models.StepRollover, models.StepAddTasks},
		{"missing requests moves forward", bare, models.StepPartnerRequests, models.StepConfirmation},
		{"missing task review moves to summary", noTasks, models.StepTaskReview, models.StepSummary},
		{"other flow starts over", bare, models.StepRating, models.StepAddTasks},
		{"unknown step starts over", noTasks, "BOGUS", models.StepModeSelect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seq.Clamp(tt.step); got != tt.want {
				t.Errorf("Clamp(%s) = %s, want %s", tt.step, got, tt.want)
			}
			if !tt.seq.Contains(tt.seq.Clamp(tt.step)) {
				t.Errorf("Clamp(%s) left the sequence", tt.step)
			}
		})
	}
}
