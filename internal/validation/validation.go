package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/week"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictInvalidTask        ConflictType = "invalid_task"
	ConflictDuplicateTaskTitle ConflictType = "duplicate_task_title"
	ConflictWrongWeek          ConflictType = "wrong_week"
	ConflictWrongOwner         ConflictType = "wrong_owner"
	ConflictOrphanedRequest    ConflictType = "orphaned_request"
)

// Conflict represents a detected problem in a user's week
type Conflict struct {
	Type        ConflictType
	Description string
	Week        week.ID
	Items       []string // Task titles involved
	TaskIDs     []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks stored weeks for data the wizards cannot handle.
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateWeek checks the tasks storage returned for user in wk.
func (v *Validator) ValidateWeek(user models.User, wk week.ID, tasks []models.Task) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	titles := make(map[string][]models.Task)
	for _, task := range tasks {
		if err := task.Validate(); err != nil {
			result.add(ConflictInvalidTask, wk, fmt.Sprintf("Task %s is invalid: %v", task.ID, err), task)
			continue
		}
		if task.WeekID != wk {
			result.add(ConflictWrongWeek, wk, fmt.Sprintf("Task \"%s\" belongs to %s, not %s", task.Title, task.WeekID, wk), task)
		}
		if task.OwnerID != user.ID {
			result.add(ConflictWrongOwner, wk, fmt.Sprintf("Task \"%s\" is owned by %s, not %s", task.Title, task.OwnerID, user.ID), task)
		}
		if task.Status == models.TaskStatusPendingAcceptance && !requestedByPartner(user, task) {
			result.add(ConflictOrphanedRequest, wk,
				fmt.Sprintf("Request \"%s\" from %s is waiting, but %s is not %s's partner", task.Title, task.CreatedBy, task.CreatedBy, user.ID), task)
		}
		if isOpen(task.Status) {
			key := strings.ToLower(strings.TrimSpace(task.Title))
			titles[key] = append(titles[key], task)
		}
	}

	keys := make([]string, 0, len(titles))
	for key := range titles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		dupes := titles[key]
		if len(dupes) < 2 {
			continue
		}
		ids := make([]string, len(dupes))
		for i, t := range dupes {
			ids[i] = t.ID
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateTaskTitle,
			Description: fmt.Sprintf("Duplicate open task in %s: \"%s\" (IDs: %v)", wk, dupes[0].Title, ids),
			Week:        wk,
			Items:       []string{dupes[0].Title},
			TaskIDs:     ids,
		})
	}
	return result
}

func (vr *ValidationResult) add(kind ConflictType, wk week.ID, desc string, task models.Task) {
	vr.Conflicts = append(vr.Conflicts, Conflict{
		Type:        kind,
		Description: desc,
		Week:        wk,
		Items:       []string{task.Title},
		TaskIDs:     []string{task.ID},
	})
}

func requestedByPartner(user models.User, task models.Task) bool {
	return user.HasPartner() && task.CreatedBy == *user.PartnerID
}

func isOpen(s models.TaskStatus) bool {
	return s == models.TaskStatusPending || s == models.TaskStatusPendingAcceptance
}
