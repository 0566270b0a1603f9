package storage

import (
	"context"
	"time"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/week"
)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Users
	AddUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
	// PairUsers links two users as partners in both directions.
	PairUsers(ctx context.Context, a, b string) error

	// Tasks
	// AddTask inserts a task. Re-adding an existing ID is a no-op.
	AddTask(ctx context.Context, task models.Task) error
	GetTask(ctx context.Context, id string) (models.Task, error)
	// GetTasksForWeek returns the owner's tasks in the week, oldest first.
	GetTasksForWeek(ctx context.Context, ownerID string, w week.ID) ([]models.Task, error)
	// GetTasksByStatusAndOwner returns the owner's tasks in any week with the given status, oldest first.
	GetTasksByStatusAndOwner(ctx context.Context, ownerID string, status models.TaskStatus) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) error
	UpdateTaskOutcomeNote(ctx context.Context, id string, note string) error

	// Weeks
	// EnsureWeek returns the user's record for w, creating an empty one if absent.
	EnsureWeek(ctx context.Context, userID string, w week.ID) (models.Week, error)
	GetWeek(ctx context.Context, userID string, w week.ID) (models.Week, error)
	// GetPreviousWeek returns the record for the ISO week immediately before w.
	GetPreviousWeek(ctx context.Context, userID string, w week.ID) (models.Week, error)
	// GetLatestWeek returns the most recent record whose week is not after asOf.
	GetLatestWeek(ctx context.Context, userID string, asOf week.ID) (models.Week, error)
	UpdateWeekReview(ctx context.Context, userID string, w week.ID, rating *int, note string, mode models.ReviewMode) error
	// MarkPlanned and MarkReviewed set the marker once; later calls keep the first timestamp.
	MarkPlanned(ctx context.Context, userID string, w week.ID, at time.Time) error
	MarkReviewed(ctx context.Context, userID string, w week.ID, at time.Time) error

	// Progress returns the wizard progress store for a user, backed by the same database.
	Progress(userID string) progress.Store

	// Utils
	GetConfigPath() string
}
