package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/tandem/internal/auth"
	"github.com/julianstephens/tandem/internal/validation"
	"github.com/julianstephens/tandem/internal/week"
)

type DoctorCmd struct{}

type check struct {
	name string
	run  func(ctx *Context) error
	// warn marks checks whose failure is reported but does not fail doctor.
	warn bool
	// needsDB skips the check when the database is unreachable.
	needsDB bool
	// connects marks the check that decides whether the database is reachable.
	connects bool
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable, connects: true},
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Settings", run: checkSettings},
	{name: "Backups present", run: checkBackupsPresent, warn: true},
	{name: "Partner links", run: checkPartners, needsDB: true},
	{name: "Task data", run: checkTaskData, warn: true, needsDB: true},
	{name: "Signed-in user", run: checkIdentity, warn: true, needsDB: true},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
			if c.connects {
				dbReachable = false
			}
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

// checkDBReachable connects without validating the schema, which
// checkSchemaVersion reports separately.
func checkDBReachable(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return ctx.Store.Load(ctx.context())
	}
	if _, _, err := m.SchemaVersion(); err == nil {
		return nil
	}
	if err := ctx.Store.Load(ctx.context()); err != nil {
		// Load also fails on a schema mismatch; the connection itself is fine then.
		if _, _, verr := m.SchemaVersion(); verr == nil {
			return nil
		}
		return fmt.Errorf("failed to load database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'tandem migrate')", current, latest)
	}
	return nil
}

func checkSettings(ctx *Context) error {
	return ctx.Settings.Validate()
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if errors.Is(err, errBackupUnsupported) {
		return nil
	}
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'tandem backup create'")
	}
	return nil
}

// checkPartners verifies that every partner link points back.
func checkPartners(ctx *Context) error {
	users, err := ctx.Store.GetAllUsers(ctx.context())
	if err != nil {
		return fmt.Errorf("failed to get users: %w", err)
	}
	partners := make(map[string]string, len(users))
	for _, u := range users {
		if u.HasPartner() {
			partners[u.ID] = *u.PartnerID
		}
	}
	for id, partner := range partners {
		if back, ok := partners[partner]; !ok || back != id {
			return fmt.Errorf("user %s is paired with %s, but %s is not paired back", id, partner, partner)
		}
	}
	return nil
}

// checkTaskData validates every user's planning and review weeks.
func checkTaskData(ctx *Context) error {
	users, err := ctx.Store.GetAllUsers(ctx.context())
	if err != nil {
		return fmt.Errorf("failed to get users: %w", err)
	}
	ws, loc, err := ctx.windows()
	if err != nil {
		return err
	}
	now := ctx.now()
	weeks := []week.ID{ws.ReviewWeek(now, loc)}
	if planning := ws.PlanningWeek(now, loc); planning != weeks[0] {
		weeks = append(weeks, planning)
	}

	validator := validation.New()
	var problems []string
	for _, u := range users {
		for _, wk := range weeks {
			tasks, err := ctx.Store.GetTasksForWeek(ctx.context(), u.ID, wk)
			if err != nil {
				return fmt.Errorf("failed to get tasks for %s: %w", u.ID, err)
			}
			result := validator.ValidateWeek(u, wk, tasks)
			for _, c := range result.Conflicts {
				problems = append(problems, c.Description)
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s) found:\n   - %s", len(problems), strings.Join(problems, "\n   - "))
	}
	return nil
}

func checkIdentity(ctx *Context) error {
	_, err := ctx.CurrentUser()
	if errors.Is(err, auth.ErrNoUser) {
		return fmt.Errorf("nobody is signed in - run 'tandem login <user>'")
	}
	return err
}

func checkClockTimezone(ctx *Context) error {
	now := ctx.now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	loc, err := ctx.location()
	if err != nil {
		return err
	}
	if loc == time.UTC {
		fmt.Printf("   Note: timezone is UTC\n")
	}
	return nil
}
