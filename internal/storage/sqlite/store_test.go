package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "tandem.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTask(id, owner string, w week.ID, status models.TaskStatus, created time.Time) models.Task {
	return models.Task{
		ID:        id,
		Title:     "task " + id,
		OwnerID:   owner,
		OwnerKind: models.OwnerSelf,
		CreatedBy: owner,
		WeekID:    w,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(context.Background()); err == nil {
		t.Error("Load() on a missing database should fail")
	}
}

func TestInitThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tandem.db")
	store := NewStore(path)
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Migrate(nil)
	if err != nil || n != 0 {
		t.Errorf("Migrate() after Init = %d, %v; want 0, nil", n, err)
	}

	current, latest, err := reopened.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if current != latest || current == 0 {
		t.Errorf("SchemaVersion() = %d, %d; want equal and non-zero", current, latest)
	}
}

func TestUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, u := range []models.User{{ID: "alex", Name: "Alex", CreatedAt: now}, {ID: "sam", Name: "Sam", CreatedAt: now.Add(time.Second)}} {
		if err := store.AddUser(ctx, u); err != nil {
			t.Fatalf("AddUser(%s) error = %v", u.ID, err)
		}
	}

	if err := store.PairUsers(ctx, "alex", "sam"); err != nil {
		t.Fatalf("PairUsers() error = %v", err)
	}

	for id, partner := range map[string]string{"alex": "sam", "sam": "alex"} {
		u, err := store.GetUser(ctx, id)
		if err != nil {
			t.Fatalf("GetUser(%s) error = %v", id, err)
		}
		if !u.HasPartner() || *u.PartnerID != partner {
			t.Errorf("user %s partner = %v, want %s", id, u.PartnerID, partner)
		}
	}

	users, err := store.GetAllUsers(ctx)
	if err != nil || len(users) != 2 || users[0].ID != "alex" {
		t.Errorf("GetAllUsers() = %v, %v", users, err)
	}

	if _, err := store.GetUser(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser(nobody) error = %v, want ErrNotFound", err)
	}
	if err := store.PairUsers(ctx, "alex", "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("PairUsers(alex, nobody) error = %v, want ErrNotFound", err)
	}
	if err := store.PairUsers(ctx, "alex", "alex"); err == nil {
		t.Error("PairUsers(alex, alex) should fail")
	}
}

func TestTasks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	w := week.ID("2026-W43")
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	src := "t0"
	tasks := []models.Task{
		newTask("t2", "alex", w, models.TaskStatusPending, base.Add(2*time.Minute)),
		newTask("t1", "alex", w, models.TaskStatusPending, base.Add(time.Minute)),
		newTask("t3", "sam", w, models.TaskStatusPending, base),
		newTask("t4", "alex", w.Previous(), models.TaskStatusPendingAcceptance, base),
	}
	tasks[0].RolledOverFrom = &src
	for _, task := range tasks {
		if err := store.AddTask(ctx, task); err != nil {
			t.Fatalf("AddTask(%s) error = %v", task.ID, err)
		}
	}

	got, err := store.GetTasksForWeek(ctx, "alex", w)
	if err != nil {
		t.Fatalf("GetTasksForWeek() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Fatalf("GetTasksForWeek() = %+v, want [t1 t2]", got)
	}
	if !got[1].IsRollover() || *got[1].RolledOverFrom != "t0" {
		t.Errorf("rollover link not preserved: %+v", got[1])
	}
	if !got[0].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, base.Add(time.Minute))
	}

	pending, err := store.GetTasksByStatusAndOwner(ctx, "alex", models.TaskStatusPendingAcceptance)
	if err != nil || len(pending) != 1 || pending[0].ID != "t4" {
		t.Errorf("GetTasksByStatusAndOwner() = %v, %v", pending, err)
	}

	if err := store.UpdateTaskStatus(ctx, "t1", models.TaskStatusCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus() error = %v", err)
	}
	if err := store.UpdateTaskOutcomeNote(ctx, "t1", "done early"); err != nil {
		t.Fatalf("UpdateTaskOutcomeNote() error = %v", err)
	}
	t1, err := store.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if t1.Status != models.TaskStatusCompleted || t1.OutcomeNote != "done early" {
		t.Errorf("GetTask() = %+v", t1)
	}

	if err := store.UpdateTaskStatus(ctx, "missing", models.TaskStatusCompleted); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateTaskStatus(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.UpdateTaskStatus(ctx, "t1", "bogus"); err == nil {
		t.Error("UpdateTaskStatus(bogus) should fail")
	}
	if _, err := store.GetTask(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTask(missing) error = %v, want ErrNotFound", err)
	}

	invalid := newTask("t5", "alex", w, models.TaskStatusPending, base)
	invalid.Title = "   "
	if err := store.AddTask(ctx, invalid); err == nil {
		t.Error("AddTask() with blank title should fail")
	}
}

func TestWeeks(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	w := week.ID("2026-W43")

	wk, err := store.EnsureWeek(ctx, "alex", w)
	if err != nil {
		t.Fatalf("EnsureWeek() error = %v", err)
	}
	if wk.StartDate != "2026-10-19" || wk.EndDate != "2026-10-25" {
		t.Errorf("dates = %s..%s, want 2026-10-19..2026-10-25", wk.StartDate, wk.EndDate)
	}
	if wk.IsPlanned() || wk.IsReviewed() {
		t.Error("new week should carry no markers")
	}

	first := time.Date(2026, 10, 18, 19, 0, 0, 0, time.UTC)
	if err := store.MarkPlanned(ctx, "alex", w, first); err != nil {
		t.Fatalf("MarkPlanned() error = %v", err)
	}
	if err := store.MarkPlanned(ctx, "alex", w, first.Add(time.Hour)); err != nil {
		t.Fatalf("second MarkPlanned() error = %v", err)
	}

	rating := 4
	if err := store.UpdateWeekReview(ctx, "alex", w, &rating, "solid", models.ReviewModeTogether); err != nil {
		t.Fatalf("UpdateWeekReview() error = %v", err)
	}
	bad := 9
	if err := store.UpdateWeekReview(ctx, "alex", w, &bad, "", models.ReviewModeSolo); err == nil {
		t.Error("UpdateWeekReview() with rating 9 should fail")
	}

	wk, err = store.GetWeek(ctx, "alex", w)
	if err != nil {
		t.Fatalf("GetWeek() error = %v", err)
	}
	if !wk.PlannedAt.Equal(first) {
		t.Errorf("PlannedAt = %v, want first mark %v", wk.PlannedAt, first)
	}
	if wk.Rating == nil || *wk.Rating != 4 || wk.RatingNote != "solid" || wk.ReviewMode != models.ReviewModeTogether {
		t.Errorf("review fields = %+v", wk)
	}

	// Marking creates the row when absent.
	prev := w.Previous()
	if err := store.MarkReviewed(ctx, "alex", prev, first); err != nil {
		t.Fatalf("MarkReviewed() error = %v", err)
	}
	got, err := store.GetPreviousWeek(ctx, "alex", w)
	if err != nil || got.ID != prev || !got.IsReviewed() {
		t.Errorf("GetPreviousWeek() = %+v, %v", got, err)
	}
	if _, err := store.GetPreviousWeek(ctx, "alex", prev); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetPreviousWeek() before history error = %v, want ErrNotFound", err)
	}

	if _, err := store.EnsureWeek(ctx, "alex", w.Next()); err != nil {
		t.Fatalf("EnsureWeek(next) error = %v", err)
	}
	latest, err := store.GetLatestWeek(ctx, "alex", w)
	if err != nil || latest.ID != w {
		t.Errorf("GetLatestWeek(%s) = %s, %v", w, latest.ID, err)
	}
	if _, err := store.GetLatestWeek(ctx, "sam", w); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetLatestWeek(sam) error = %v, want ErrNotFound", err)
	}
}

func TestProgressStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	ps := store.Progress("alex")

	rec, err := ps.Load(ctx, models.FlowPlanning)
	if err != nil || rec != nil {
		t.Fatalf("Load() on empty store = %v, %v; want nil, nil", rec, err)
	}

	r := progress.New("alex", models.FlowPlanning, "2026-W43")
	r.Step = models.StepAddTasks
	r.TasksAdded = 2
	r.Decisions["t1"] = progress.DecisionAccepted
	if err := ps.Save(ctx, r); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	r.TasksAdded = 3
	if err := ps.Save(ctx, r); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := ps.Load(ctx, models.FlowPlanning)
	if err != nil || got == nil {
		t.Fatalf("Load() = %v, %v", got, err)
	}
	if got.TasksAdded != 3 || got.Step != models.StepAddTasks || got.Decisions["t1"] != progress.DecisionAccepted {
		t.Errorf("Load() = %+v", got)
	}

	if other, _ := store.Progress("sam").Load(ctx, models.FlowPlanning); other != nil {
		t.Error("progress leaked across users")
	}
	if review, _ := ps.Load(ctx, models.FlowReview); review != nil {
		t.Error("progress leaked across flows")
	}

	for i := 0; i < 2; i++ {
		if err := ps.Clear(ctx, models.FlowPlanning); err != nil {
			t.Fatalf("Clear() #%d error = %v", i, err)
		}
	}
	if got, _ := ps.Load(ctx, models.FlowPlanning); got != nil {
		t.Error("Load() after Clear() should return nil")
	}
}

func TestAddTaskIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	task := newTask("dup", "alex", "2026-W43", models.TaskStatusPending, time.Now())

	for i := 0; i < 2; i++ {
		if err := store.AddTask(ctx, task); err != nil {
			t.Fatalf("AddTask() #%d error = %v", i, err)
		}
	}
	tasks, err := store.GetTasksForWeek(ctx, "alex", "2026-W43")
	if err != nil || len(tasks) != 1 {
		t.Errorf("GetTasksForWeek() = %d tasks, %v; want 1", len(tasks), err)
	}
}
