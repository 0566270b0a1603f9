package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/tandem/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func stubConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
	return dir
}

func stubProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestGetTrayAppConfigDir(t *testing.T) {
	base := stubConfigDir(t)

	want := filepath.Join(base, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != want {
		t.Errorf("expected %s, got %s", want, dir)
	}

	if err := os.MkdirAll(want, 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "/custom/tandem/dir"
	settings := fmt.Sprintf(`{"settings": {"lockfile_dir": %q}}`, custom)
	if err := os.WriteFile(filepath.Join(want, "settings.json"), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir != custom {
		t.Errorf("expected %s, got %s", custom, dir)
	}
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfile := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, _, err := findAndValidateTrayProcess(lockfile); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile error = %v, want ErrTrayNotRunning", err)
	}

	tests := []struct {
		name    string
		content string
		exe     string
		wantErr string
	}{
		{"two parts", "8080|12345", "tandem-tray", "malformed"},
		{"garbage", "invalid", "tandem-tray", "malformed"},
		{"empty secret", "8080|12345|", "tandem-tray", "secret"},
		{"empty port", "|12345|s3cret", "tandem-tray", "port"},
		{"port out of range", "99999|12345|s3cret", "tandem-tray", "range"},
		{"bad pid", "8080|abc|s3cret", "tandem-tray", "process ID"},
		{"process gone", "8080|12345|s3cret", "", "not running"},
		{"wrong executable", "8080|12345|s3cret", "other-app", "is not tandem-tray"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubProcess(t, tt.exe)
			if err := os.WriteFile(lockfile, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, _, err := findAndValidateTrayProcess(lockfile)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want one mentioning %q", err, tt.wantErr)
			}
		})
	}

	stubProcess(t, "tandem-tray")
	if err := os.WriteFile(lockfile, []byte("8080|12345|s3cret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	port, secret, err := findAndValidateTrayProcess(lockfile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != "8080" || secret != "s3cret" {
		t.Errorf("got port %s secret %s", port, secret)
	}
}

func TestNotify(t *testing.T) {
	var calls atomic.Int32
	var got WebhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the first attempt fails so the retry path runs
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("X-Tandem-Secret") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}

	base := stubConfigDir(t)
	stubProcess(t, "tandem-tray")
	trayDir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := fmt.Sprintf("%s|4242|s3cret", u.Port())
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(lock), 0o644); err != nil {
		t.Fatal(err)
	}

	n := New()
	n.retryDelay = time.Millisecond
	if err := n.Notify(context.Background(), "Planning for 2026-W44 is open."); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2", calls.Load())
	}
	if got.Text != "Planning for 2026-W44 is open." || got.DurationMs != constants.NotificationDurationMs {
		t.Errorf("payload = %+v", got)
	}
}

func TestNotifyGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	base := stubConfigDir(t)
	stubProcess(t, "tandem-tray")
	trayDir := filepath.Join(base, constants.TrayAppIdentifier)
	if err := os.MkdirAll(trayDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(trayDir, constants.NotifierLockfileName), []byte(u.Port()+"|1|s3cret"), 0o644); err != nil {
		t.Fatal(err)
	}

	n := New()
	n.retryDelay = time.Millisecond
	err := n.Notify(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Notify() error = %v, want status 500", err)
	}
	if calls.Load() != constants.NotifyMaxRetries {
		t.Errorf("server saw %d calls, want %d", calls.Load(), constants.NotifyMaxRetries)
	}
}
