package e2e

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	// Allow overriding bin dir via env var, default to ../../bin (relative to tests/e2e)
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get cwd: %v", err)
	}

	binDir := os.Getenv("TANDEM_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join(cwd, "..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	t.Logf("Using bin dir: %s", binDir)

	cliPath := filepath.Join(binDir, "tandem")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Fatalf("CLI binary not found at %s. Please build it first.", cliPath)
	}

	// Create temp home for isolation
	tempDir := t.TempDir()
	t.Logf("Running test in temp dir: %s", tempDir)

	var cleanEnv []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "HOME=") && !strings.HasPrefix(e, "TANDEM_") {
			cleanEnv = append(cleanEnv, e)
		}
	}
	cleanEnv = append(cleanEnv, fmt.Sprintf("HOME=%s", tempDir))
	cleanEnv = append(cleanEnv, fmt.Sprintf("TANDEM_DB_CONNECTION=%s", filepath.Join(tempDir, "tandem.db")))
	asAlex := append(append([]string{}, cleanEnv...), "TANDEM_USER=alex")
	asSam := append(append([]string{}, cleanEnv...), "TANDEM_USER=sam")

	// 2. Initialize storage and the couple
	t.Log("Initializing tandem...")
	runCmd(t, cliPath, cleanEnv, "init")
	runCmd(t, cliPath, cleanEnv, "user", "add", "alex", "--name", "Alex")
	runCmd(t, cliPath, cleanEnv, "user", "add", "sam", "--name", "Sam")
	runCmd(t, cliPath, cleanEnv, "user", "pair", "alex", "sam")

	if _, err := os.Stat(filepath.Join(tempDir, ".config", "tandem", "config.yaml")); err != nil {
		t.Errorf("init did not write settings: %v", err)
	}

	// 3. Add tasks, one of them for the partner
	t.Log("Adding tasks...")
	runCmd(t, cliPath, asAlex, "task", "add", "groceries")
	runCmd(t, cliPath, asAlex, "task", "add", "fix the bike", "--owner", "partner")

	out := runCmd(t, cliPath, asSam, "task", "list")
	if !strings.Contains(out, "fix the bike") || !strings.Contains(out, "pending_acceptance") {
		t.Errorf("sam should see the request from alex, got:\n%s", out)
	}

	// 4. Inspect status and health
	out = runCmd(t, cliPath, asAlex, "status")
	if !strings.Contains(out, "Signed in as Alex") {
		t.Errorf("unexpected status output:\n%s", out)
	}
	runCmd(t, cliPath, asAlex, "notify", "--dry-run", "--all")
	runCmd(t, cliPath, asAlex, "settings", "set", "review.closes", "Sunday 21:00")
	if out := runCmd(t, cliPath, asAlex, "settings", "get", "review.closes"); !strings.Contains(out, "Sunday 21:00") {
		t.Errorf("settings get = %q", out)
	}

	// 5. Backups
	t.Log("Creating backup...")
	runCmd(t, cliPath, cleanEnv, "backup", "create")
	if out := runCmd(t, cliPath, cleanEnv, "backup", "list"); !strings.Contains(out, "tandem-") {
		t.Errorf("backup list did not show the backup:\n%s", out)
	}
	runCmd(t, cliPath, asAlex, "doctor")

	// 6. Invalid weeks are rejected before any wizard opens
	cmd := exec.Command(cliPath, "review", "--week", "2000-W99")
	cmd.Env = asAlex
	if out, err := cmd.CombinedOutput(); err == nil {
		t.Errorf("review with an invalid week should fail, got:\n%s", out)
	}
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}
