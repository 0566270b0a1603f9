package wizard

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/storage/sqlite"
	"github.com/julianstephens/tandem/internal/week"
)

const (
	thisWeek = week.ID("2026-W43")
	lastWeek = week.ID("2026-W42")
)

var errUnavailable = errors.New("store unavailable")

// flakyStore fails the next n calls of selected mutations.
type flakyStore struct {
	storage.Provider
	mu   sync.Mutex
	fail map[string]int
}

func (f *flakyStore) failNext(method string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = n
}

func (f *flakyStore) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[method] > 0 {
		f.fail[method]--
		return errUnavailable
	}
	return nil
}

func (f *flakyStore) AddTask(ctx context.Context, task models.Task) error {
	if err := f.check("AddTask"); err != nil {
		return err
	}
	return f.Provider.AddTask(ctx, task)
}

func (f *flakyStore) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) error {
	if err := f.check("UpdateTaskStatus"); err != nil {
		return err
	}
	return f.Provider.UpdateTaskStatus(ctx, id, status)
}

func (f *flakyStore) UpdateWeekReview(ctx context.Context, userID string, w week.ID, rating *int, note string, mode models.ReviewMode) error {
	if err := f.check("UpdateWeekReview"); err != nil {
		return err
	}
	return f.Provider.UpdateWeekReview(ctx, userID, w, rating, note, mode)
}

func (f *flakyStore) MarkPlanned(ctx context.Context, userID string, w week.ID, at time.Time) error {
	if err := f.check("MarkPlanned"); err != nil {
		return err
	}
	return f.Provider.MarkPlanned(ctx, userID, w, at)
}

// brokenProgress never manages to save.
type brokenProgress struct{}

func (brokenProgress) Load(context.Context, models.Flow) (*progress.Record, error) { return nil, nil }
func (brokenProgress) Save(context.Context, progress.Record) error                 { return errUnavailable }
func (brokenProgress) Clear(context.Context, models.Flow) error                    { return nil }

type env struct {
	t        *testing.T
	db       *sqlite.Store
	store    *flakyStore
	progress progress.Store
	logger   *log.Logger
	now      time.Time
	ids      int
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := sqlite.NewStore(filepath.Join(t.TempDir(), "tandem.db"))
	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Wednesday of 2026-W43
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	alex, sam := "alex", "sam"
	for _, u := range []models.User{
		{ID: alex, Name: "Alex", PartnerID: &sam, CreatedAt: now},
		{ID: sam, Name: "Sam", PartnerID: &alex, CreatedAt: now},
		{ID: "solo", Name: "Solo", CreatedAt: now},
	} {
		if err := db.AddUser(ctx, u); err != nil {
			t.Fatalf("AddUser() error = %v", err)
		}
	}

	return &env{
		t:        t,
		db:       db,
		store:    &flakyStore{Provider: db, fail: map[string]int{}},
		progress: progress.NewMemoryStore(),
		now:      now,
	}
}

func (e *env) open(flow models.Flow) *Controller {
	e.t.Helper()
	c, err := e.openAs("alex", flow)
	if err != nil {
		e.t.Fatalf("Open(%s) error = %v", flow, err)
	}
	return c
}

func (e *env) openAs(user string, flow models.Flow) (*Controller, error) {
	c, err := Open(context.Background(), Config{
		Flow:     flow,
		UserID:   user,
		WeekID:   thisWeek,
		Location: time.UTC,
	}, Deps{
		Store:    e.store,
		Progress: e.progress,
		Logger:   e.logger,
		Now:      func() time.Time { return e.now },
		NewID: func() string {
			e.ids++
			return fmt.Sprintf("new-%d", e.ids)
		},
	})
	if err == nil {
		e.t.Cleanup(func() { c.Close() })
	}
	return c, err
}

func (e *env) addTask(id, owner, createdBy string, w week.ID, status models.TaskStatus) models.Task {
	e.t.Helper()
	e.ids++
	created := e.now.Add(time.Duration(e.ids) * time.Minute)
	task := models.Task{
		ID:        id,
		Title:     "Task " + id,
		OwnerID:   owner,
		OwnerKind: models.OwnerSelf,
		CreatedBy: createdBy,
		WeekID:    w,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := e.db.AddTask(context.Background(), task); err != nil {
		e.t.Fatalf("AddTask(%s) error = %v", id, err)
	}
	return task
}

func (e *env) task(id string) models.Task {
	e.t.Helper()
	task, err := e.db.GetTask(context.Background(), id)
	if err != nil {
		e.t.Fatalf("GetTask(%s) error = %v", id, err)
	}
	return task
}

func (e *env) tasks(owner string, w week.ID) []models.Task {
	e.t.Helper()
	tasks, err := e.db.GetTasksForWeek(context.Background(), owner, w)
	if err != nil {
		e.t.Fatalf("GetTasksForWeek() error = %v", err)
	}
	return tasks
}

func (e *env) week(user string) models.Week {
	e.t.Helper()
	wk, err := e.db.GetWeek(context.Background(), user, thisWeek)
	if err != nil {
		e.t.Fatalf("GetWeek() error = %v", err)
	}
	return wk
}

func (e *env) saved(flow models.Flow) *progress.Record {
	e.t.Helper()
	rec, err := e.progress.Load(context.Background(), flow)
	if err != nil {
		e.t.Fatalf("progress Load() error = %v", err)
	}
	return rec
}

func mustDispatch(t *testing.T, c *Controller, events ...Event) {
	t.Helper()
	for _, ev := range events {
		if err := c.Dispatch(context.Background(), ev); err != nil {
			t.Fatalf("Dispatch(%T) error = %v", ev, err)
		}
	}
}

// drain returns every effect emitted so far.
func drain(c *Controller) []Effect {
	var out []Effect
	for {
		select {
		case e, ok := <-c.Effects():
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

func findEffect[T Effect](effects []Effect) (T, bool) {
	for _, e := range effects {
		if v, ok := e.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
