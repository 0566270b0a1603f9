package models

import "fmt"

// Flow names one of the two weekly wizards.
type Flow string

const (
	FlowPlanning Flow = "planning"
	FlowReview   Flow = "review"
)

func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case FlowPlanning, FlowReview:
		return Flow(s), nil
	}
	return "", fmt.Errorf("unknown flow %q (expected planning or review)", s)
}

// Step identifies a wizard screen. Steps are shared between the engine and
// the persisted progress record, so they live alongside the other models.
type Step string

const (
	StepRollover        Step = "ROLLOVER"
	StepAddTasks        Step = "ADD_TASKS"
	StepPartnerRequests Step = "PARTNER_REQUESTS"
	StepConfirmation    Step = "CONFIRMATION"

	StepModeSelect Step = "MODE_SELECT"
	StepRating     Step = "RATING"
	StepTaskReview Step = "TASK_REVIEW"
	StepSummary    Step = "SUMMARY"
)
