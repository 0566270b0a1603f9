package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/week"
)

type TaskAddCmd struct {
	Title string `arg:"" optional:"" help:"Task title. Prompts interactively when omitted."`
	Notes string `short:"n" help:"Optional notes."`
	Owner string `short:"o" enum:"self,partner,shared" default:"self" help:"Whose task it is (self|partner|shared)."`
	Week  string `short:"w" help:"Week to add the task to (YYYY-Www). Defaults to the week being planned."`
}

type taskForm struct {
	Title string
	Notes string
	Owner models.OwnerKind
}

// promptTask asks for the task fields. Tests replace it.
var promptTask = func(f *taskForm, hasPartner bool) error {
	options := []huh.Option[models.OwnerKind]{huh.NewOption("Me", models.OwnerSelf)}
	if hasPartner {
		options = append(options,
			huh.NewOption("My partner (they accept it next planning)", models.OwnerPartner),
			huh.NewOption("Both of us", models.OwnerShared),
		)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&f.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Notes").
				Value(&f.Notes),
			huh.NewSelect[models.OwnerKind]().
				Title("Owner").
				Options(options...).
				Value(&f.Owner),
		),
	).WithTheme(huh.ThemeDracula()).Run()
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	wk, err := ctx.targetWeek(c.Week)
	if err != nil {
		return err
	}

	f := taskForm{Title: c.Title, Notes: c.Notes, Owner: models.OwnerKind(c.Owner)}
	if strings.TrimSpace(f.Title) == "" {
		if err := promptTask(&f, user.HasPartner()); err != nil {
			return err
		}
	}
	if f.Owner == "" {
		f.Owner = models.OwnerSelf
	}
	if f.Owner != models.OwnerSelf && !user.HasPartner() {
		return fmt.Errorf("pair with a partner before adding %s tasks", f.Owner)
	}

	now := ctx.now().UTC()
	task := models.Task{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(f.Title),
		Notes:     strings.TrimSpace(f.Notes),
		OwnerID:   user.ID,
		OwnerKind: f.Owner,
		CreatedBy: user.ID,
		WeekID:    wk,
		Status:    models.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if f.Owner == models.OwnerPartner {
		task.OwnerID = *user.PartnerID
		task.Status = models.TaskStatusPendingAcceptance
	}

	if err := ctx.Store.AddTask(ctx.context(), task); err != nil {
		return err
	}
	fmt.Printf("Added task: %s (ID: %s, week %s)\n", task.Title, task.ID, wk)
	if task.Status == models.TaskStatusPendingAcceptance {
		fmt.Printf("  Waiting for %s to accept it.\n", task.OwnerID)
	}
	return nil
}

// targetWeek parses an explicit week or falls back to the week being planned.
func (c *Context) targetWeek(raw string) (week.ID, error) {
	if raw != "" {
		return week.Parse(raw)
	}
	ws, loc, err := c.windows()
	if err != nil {
		return "", err
	}
	return ws.PlanningWeek(c.now(), loc), nil
}

type TaskListCmd struct {
	Week string `short:"w" help:"Week to list (YYYY-Www). Defaults to the week being planned."`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	wk, err := ctx.targetWeek(c.Week)
	if err != nil {
		return err
	}

	tasks, err := ctx.Store.GetTasksForWeek(ctx.context(), user.ID, wk)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Printf("No tasks for %s\n", wk)
	} else {
		fmt.Printf("Tasks for %s:\n", wk)
		for _, t := range tasks {
			fmt.Printf("  [%s] %s%s\n", t.Status, t.Title, taskSuffix(t, user.ID))
			if t.Notes != "" {
				fmt.Printf("      %s\n", t.Notes)
			}
		}
	}

	d, err := ctx.derive()
	if err != nil {
		return err
	}
	requests, err := d.PendingPartnerRequests(ctx.context(), user.ID)
	if err != nil {
		return err
	}
	if len(requests) > 0 {
		fmt.Printf("\n%d partner request(s) waiting. They come up in 'tandem plan'.\n", len(requests))
	}
	return nil
}

func taskSuffix(t models.Task, userID string) string {
	var parts []string
	if t.OwnerKind == models.OwnerShared {
		parts = append(parts, "shared")
	}
	if t.CreatedBy != userID {
		parts = append(parts, "from "+t.CreatedBy)
	}
	if t.IsRollover() {
		parts = append(parts, "rolled over")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
