package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	return printJSON(map[string]string{
		"path":     ctx.Store.GetConfigPath(),
		"settings": ctx.SettingsPath(),
	})
}

type DebugDumpTaskCmd struct {
	ID string `arg:"" help:"ID of the task to dump."`
}

func (cmd *DebugDumpTaskCmd) Run(ctx *Context) error {
	task, err := ctx.Store.GetTask(ctx.context(), cmd.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("task not found: %s", cmd.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	return printJSON(task)
}

type DebugDumpWeekCmd struct {
	Week string `arg:"" help:"Week to dump (YYYY-Www or 'current')."`
	User string `short:"u" help:"User whose week to dump. Defaults to the signed-in user."`
}

type weekDump struct {
	Week  models.Week   `json:"week"`
	Tasks []models.Task `json:"tasks"`
}

func (cmd *DebugDumpWeekCmd) Run(ctx *Context) error {
	wk, err := cmd.resolveWeek(ctx)
	if err != nil {
		return err
	}
	userID := cmd.User
	if userID == "" {
		user, err := ctx.CurrentUser()
		if err != nil {
			return err
		}
		userID = user.ID
	}

	w, err := ctx.Store.GetWeek(ctx.context(), userID, wk)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no week found for %s: %s", userID, wk)
	}
	if err != nil {
		return fmt.Errorf("failed to get week: %w", err)
	}
	tasks, err := ctx.Store.GetTasksForWeek(ctx.context(), userID, wk)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	return printJSON(weekDump{Week: w, Tasks: tasks})
}

func (cmd *DebugDumpWeekCmd) resolveWeek(ctx *Context) (week.ID, error) {
	if cmd.Week == "current" {
		loc, err := ctx.location()
		if err != nil {
			return "", err
		}
		return week.Of(ctx.now().In(loc)), nil
	}
	wk, err := week.Parse(cmd.Week)
	if err != nil {
		return "", fmt.Errorf("invalid week format: %s (expected YYYY-Www or 'current')", cmd.Week)
	}
	return wk, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
