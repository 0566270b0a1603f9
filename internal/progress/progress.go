// Package progress persists the in-flight state of a weekly wizard so a
// session can resume after the process exits.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/week"
)

// SchemaVersion is bumped whenever Record changes incompatibly.
const SchemaVersion = 1

// Decision records what the user chose for a rollover candidate or a partner request.
type Decision string

const (
	DecisionAccepted  Decision = "accepted"
	DecisionSkipped   Decision = "skipped"
	DecisionDiscussed Decision = "discussed"
	DecisionDeclined  Decision = "declined"
)

// Record is the persisted state of one wizard session.
type Record struct {
	SchemaVersion int                          `json:"schema_version"`
	UserID        string                       `json:"user_id"`
	Flow          models.Flow                  `json:"flow"`
	WeekID        week.ID                      `json:"week_id"`
	Step          models.Step                  `json:"step"`
	Mode          models.ReviewMode            `json:"mode,omitempty"`
	Rating        *int                         `json:"rating,omitempty"`
	Note          string                       `json:"note,omitempty"`
	CurrentIndex  int                          `json:"current_index"`
	Outcomes      map[string]models.TaskStatus `json:"outcomes"`
	TaskNotes     map[string]string            `json:"task_notes"`
	Decisions     map[string]Decision          `json:"decisions"`
	TasksAdded    int                          `json:"tasks_added"`
	RolledOver    int                          `json:"rolled_over"`
	Accepted      int                          `json:"accepted"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// New returns an empty record for a fresh session.
func New(userID string, flow models.Flow, weekID week.ID) Record {
	return Record{
		SchemaVersion: SchemaVersion,
		UserID:        userID,
		Flow:          flow,
		WeekID:        weekID,
		Outcomes:      map[string]models.TaskStatus{},
		TaskNotes:     map[string]string{},
		Decisions:     map[string]Decision{},
	}
}

// IsStaleFor reports whether the record belongs to a week other than current.
func (r Record) IsStaleFor(current week.ID) bool {
	return r.WeekID != current
}

// Clone returns a deep copy so snapshots never alias live maps.
func (r Record) Clone() Record {
	c := r
	if r.Rating != nil {
		v := *r.Rating
		c.Rating = &v
	}
	c.Outcomes = make(map[string]models.TaskStatus, len(r.Outcomes))
	for k, v := range r.Outcomes {
		c.Outcomes[k] = v
	}
	c.TaskNotes = make(map[string]string, len(r.TaskNotes))
	for k, v := range r.TaskNotes {
		c.TaskNotes[k] = v
	}
	c.Decisions = make(map[string]Decision, len(r.Decisions))
	for k, v := range r.Decisions {
		c.Decisions[k] = v
	}
	return c
}

// Encode serializes a record for storage.
func Encode(r Record) ([]byte, error) {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SchemaVersion
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize progress: %w", err)
	}
	return data, nil
}

// Decode parses a stored record and normalizes nil maps.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse progress: %w", err)
	}
	if r.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("progress schema version (%d) is newer than supported version (%d)", r.SchemaVersion, SchemaVersion)
	}
	if r.Outcomes == nil {
		r.Outcomes = map[string]models.TaskStatus{}
	}
	if r.TaskNotes == nil {
		r.TaskNotes = map[string]string{}
	}
	if r.Decisions == nil {
		r.Decisions = map[string]Decision{}
	}
	return &r, nil
}

// Store is durable key-value storage for one in-flight record per flow.
type Store interface {
	// Load returns (nil, nil) when no record exists for flow.
	Load(ctx context.Context, flow models.Flow) (*Record, error)
	// Save fully overwrites any existing record for rec.Flow.
	Save(ctx context.Context, rec Record) error
	// Clear removes the record for flow. Clearing a missing record is not an error.
	Clear(ctx context.Context, flow models.Flow) error
}
