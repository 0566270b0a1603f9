package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage/sqlite"
	"github.com/julianstephens/tandem/internal/week"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE test_data (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("failed to create test table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO test_data (id, name) VALUES (1, 'a'), (2, 'b')`); err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
	return dbPath
}

// tickingClock advances one minute per call.
func tickingClock() func() time.Time {
	now := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM test_data").Scan(&count); err != nil {
		t.Fatalf("failed to query %s: %v", path, err)
	}
	return count
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(backupPath), BackupFilePrefix) {
		t.Errorf("backup name %q lacks prefix %q", filepath.Base(backupPath), BackupFilePrefix)
	}
	if got := countRows(t, backupPath); got != 2 {
		t.Errorf("expected 2 rows in backup, got %d", got)
	}
}

func TestBackupWithNoDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error when backing up non-existent database")
	}
}

func TestBackupRotation(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	mgr.now = tickingClock()

	for i := 0; i < MaxBackups+5; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if !backups[i].Timestamp.Before(backups[i-1].Timestamp) {
			t.Errorf("backup %d is not older than backup %d", i, i-1)
		}
	}
}

func TestListBackups(t *testing.T) {
	mgr := NewManager(setupTestDB(t))

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected 0 backups initially, got %d", len(backups))
	}

	for i := 0; i < 3; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}
	if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for _, b := range backups {
		if b.Path == "" || b.Size == 0 || b.Timestamp.IsZero() {
			t.Errorf("incomplete backup info: %+v", b)
		}
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	fixed := time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		name := filepath.Base(path)
		if seen[name] {
			t.Errorf("duplicate backup filename: %s", name)
		}
		seen[name] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 5 {
		t.Errorf("expected all 5 backups to be listed, got %d", len(backups))
	}
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"tandem-20261021-1200.db", "2026-10-21 12:00:00", true},
		{"tandem-20261021-120005.db", "2026-10-21 12:00:05", true},
		{"tandem-20261021-120005-3.db", "2026-10-21 12:00:05", true},
		{"tandem-20261021-1200.sqlite", "", false},
		{"other-20261021-1200.db", "", false},
		{"tandem-latest.db", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := parseBackupName(tt.name)
			if ok != tt.ok {
				t.Fatalf("parseBackupName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && ts.Format("2006-01-02 15:04:05") != tt.want {
				t.Errorf("parseBackupName(%q) = %s, want %s", tt.name, ts, tt.want)
			}
		})
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = tickingClock()

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO test_data (id, name) VALUES (3, 'c')"); err != nil {
		t.Fatalf("failed to insert data: %v", err)
	}
	db.Close()

	previous, err := mgr.RestoreBackup(mgr.Resolve(filepath.Base(backupPath)))
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("expected 2 rows after restore, got %d", got)
	}
	if previous == "" {
		t.Fatal("expected the current database to be backed up before restoring")
	}
	if got := countRows(t, previous); got != 3 {
		t.Errorf("pre-restore backup has %d rows, want 3", got)
	}
}

func TestRestoreWithCorruptedBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	corrupted := filepath.Join(t.TempDir(), "corrupted.db")
	if err := os.WriteFile(corrupted, []byte("not a valid sqlite database"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.RestoreBackup(corrupted); err == nil {
		t.Fatal("expected restore from corrupted backup to fail")
	}
	if got := countRows(t, dbPath); got != 2 {
		t.Errorf("database changed after failed restore: %d rows", got)
	}
}

func TestResolve(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	path, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}

	if got := mgr.Resolve(filepath.Base(path)); got != path {
		t.Errorf("Resolve(base) = %q, want %q", got, path)
	}
	if got := mgr.Resolve(path); got != path {
		t.Errorf("Resolve(abs) = %q, want %q", got, path)
	}
	if got := mgr.Resolve("elsewhere.db"); got != "elsewhere.db" {
		t.Errorf("Resolve(unknown) = %q, want it unchanged", got)
	}
}

// TestBackupRestoreStore runs the workflow against a real tandem database.
func TestBackupRestoreStore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "tandem.db")
	wk := week.Make(2026, 43)

	store := sqlite.NewStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.AddUser(ctx, models.User{ID: "alex", Name: "Alex"}); err != nil {
		t.Fatal(err)
	}
	addTask := func(id string) {
		t.Helper()
		task := models.Task{
			ID: id, Title: "task " + id, OwnerID: "alex", OwnerKind: models.OwnerSelf,
			CreatedBy: "alex", WeekID: wk, Status: models.TaskStatusPending,
		}
		if err := store.AddTask(ctx, task); err != nil {
			t.Fatalf("AddTask(%s) failed: %v", id, err)
		}
	}
	addTask("t1")
	store.Close()

	mgr := NewManager(dbPath)
	mgr.now = tickingClock()
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}
	addTask("t2")
	store.Close()

	if _, err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load after restore failed: %v", err)
	}
	defer store.Close()
	tasks, err := store.GetTasksForWeek(ctx, "alex", wk)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("tasks after restore = %+v, want only t1", tasks)
	}
}
