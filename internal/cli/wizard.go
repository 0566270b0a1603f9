package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/tandem/internal/gate"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/tui"
	"github.com/julianstephens/tandem/internal/week"
	"github.com/julianstephens/tandem/internal/wizard"
)

// runSession shows a wizard session to the user. Tests replace it.
var runSession = tui.Run

type wizardFlags struct {
	Force bool          `help:"Open the flow even when its window is closed."`
	Week  string        `short:"w" help:"Week to work on (YYYY-Www). Implies --force."`
	Wait  time.Duration `help:"How long to wait for someone to sign in (e.g. 30s)." default:"0s"`
}

type PlanCmd struct {
	Flags wizardFlags `embed:""`
}

func (c *PlanCmd) Run(ctx *Context) error {
	return runWizard(ctx, models.FlowPlanning, c.Flags)
}

type ReviewCmd struct {
	Flags wizardFlags `embed:""`
}

func (c *ReviewCmd) Run(ctx *Context) error {
	return runWizard(ctx, models.FlowReview, c.Flags)
}

func runWizard(ctx *Context, flow models.Flow, flags wizardFlags) error {
	user, err := ctx.WaitForUser(flags.Wait)
	if err != nil {
		return err
	}
	ws, loc, err := ctx.windows()
	if err != nil {
		return err
	}

	now := ctx.now()
	wk := ws.CurrentWeek(flow, now, loc)
	if flags.Week != "" {
		if wk, err = week.Parse(flags.Week); err != nil {
			return err
		}
		flags.Force = true
	}

	cfg := wizard.Config{Flow: flow, UserID: user.ID, WeekID: wk, Location: loc}
	if !flags.Force {
		cfg.Windows = &ws
	}
	progressStore, err := ctx.ProgressStore(user.ID)
	if err != nil {
		return err
	}
	d, err := ctx.derive()
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	runCtx, cancel := context.WithCancel(ctx.context())
	defer cancel()

	ctrl, err := wizard.Open(runCtx, cfg, wizard.Deps{
		Store:    ctx.Store,
		Progress: progressStore,
		Derive:   d,
		Now:      ctx.now,
	})
	if errors.Is(err, wizard.ErrWindowClosed) {
		return windowClosedError(ws, flow, now, loc)
	}
	if err != nil {
		return err
	}
	defer ctrl.Close()

	completed, err := runSession(runCtx, ctrl)
	if err != nil {
		return err
	}

	st := ctrl.State()
	switch {
	case completed && flow == models.FlowPlanning:
		fmt.Printf("✓ %s planned: %d added, %d rolled over, %d accepted\n", wk, st.TasksAdded, st.RolledOver, st.Accepted)
	case completed:
		fmt.Printf("✓ %s reviewed: %d%% complete, streak %d\n", wk, st.Completion, st.Streak)
	default:
		fmt.Printf("Session closed. Run 'tandem %s' to pick up where you left off.\n", commandFor(flow))
	}
	return nil
}

func windowClosedError(ws gate.Windows, flow models.Flow, now time.Time, loc *time.Location) error {
	next := ws.NextOpening(flow, now, loc)
	return fmt.Errorf("the %s window is closed; it opens %s (use --force to open it anyway)",
		flow, next.Format("Monday Jan 2 15:04"))
}

func commandFor(flow models.Flow) string {
	if flow == models.FlowPlanning {
		return "plan"
	}
	return "review"
}
