package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

var flows = []models.Flow{models.FlowPlanning, models.FlowReview}

type StreakCmd struct{}

func (c *StreakCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	d, err := ctx.derive()
	if err != nil {
		return err
	}
	streak, err := d.CurrentStreak(ctx.context(), user.ID)
	if err != nil {
		return err
	}

	switch streak {
	case 0:
		fmt.Println("No review streak yet. Finish a weekly review to start one.")
	case 1:
		fmt.Println("🔥 1 week reviewed in a row")
	default:
		fmt.Printf("🔥 %d weeks reviewed in a row\n", streak)
	}
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	ws, loc, err := ctx.windows()
	if err != nil {
		return err
	}
	now := ctx.now()

	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.ID)
	if user.HasPartner() {
		fmt.Printf("Partner: %s\n", *user.PartnerID)
	}
	fmt.Println()

	for _, flow := range flows {
		wk := ws.CurrentWeek(flow, now, loc)
		done, err := flowDone(ctx, user.ID, flow, wk)
		if err != nil {
			return err
		}

		state := "closed, opens " + ws.NextOpening(flow, now, loc).Format("Mon Jan 2 15:04")
		if ws.IsWindowOpen(flow, now, loc) {
			state = "open"
		}
		mark := "·"
		if done {
			mark = "✓"
		}
		fmt.Printf("%s %-8s %s  window %s\n", mark, flow, wk, state)
	}

	d, err := ctx.derive()
	if err != nil {
		return err
	}
	streak, err := d.CurrentStreak(ctx.context(), user.ID)
	if err != nil {
		return err
	}
	fmt.Printf("\nReview streak: %d\n", streak)

	store, err := ctx.ProgressStore(user.ID)
	if err != nil {
		return err
	}
	for _, flow := range flows {
		rec, err := store.Load(ctx.context(), flow)
		if err != nil {
			return err
		}
		if rec != nil {
			fmt.Printf("Unfinished %s session for %s at %s\n", flow, rec.WeekID, rec.Step)
		}
	}
	return nil
}

func flowDone(ctx *Context, userID string, flow models.Flow, wk week.ID) (bool, error) {
	w, err := ctx.Store.GetWeek(ctx.context(), userID, wk)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if flow == models.FlowPlanning {
		return w.IsPlanned(), nil
	}
	return w.IsReviewed(), nil
}

type ProgressShowCmd struct {
	Flow string `arg:"" optional:"" help:"Flow to show (planning|review). Shows both when omitted."`
	JSON bool   `help:"Print the raw progress records as JSON."`
}

func (c *ProgressShowCmd) Validate() error {
	if c.Flow == "" {
		return nil
	}
	_, err := models.ParseFlow(c.Flow)
	return err
}

func (c *ProgressShowCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	store, err := ctx.ProgressStore(user.ID)
	if err != nil {
		return err
	}

	selected := flows
	if c.Flow != "" {
		selected = []models.Flow{models.Flow(c.Flow)}
	}

	records := make(map[models.Flow]*progress.Record)
	for _, flow := range selected {
		rec, err := store.Load(ctx.context(), flow)
		if err != nil {
			return err
		}
		if rec != nil {
			records[flow] = rec
		}
	}

	if c.JSON {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal progress: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No saved progress.")
		return nil
	}
	for _, flow := range selected {
		rec, ok := records[flow]
		if !ok {
			continue
		}
		fmt.Printf("%s %s: step %s, updated %s\n", flow, rec.WeekID, rec.Step, rec.UpdatedAt.Local().Format("Mon Jan 2 15:04"))
		switch flow {
		case models.FlowPlanning:
			fmt.Printf("  %d added, %d rolled over, %d requests decided\n", rec.TasksAdded, rec.RolledOver, len(rec.Decisions))
		case models.FlowReview:
			rating := "unrated"
			if rec.Rating != nil {
				rating = fmt.Sprintf("rated %d", *rec.Rating)
			}
			fmt.Printf("  %s, %d outcomes recorded\n", rating, len(rec.Outcomes))
		}
	}
	return nil
}

type ProgressClearCmd struct {
	Flow string `arg:"" enum:"planning,review" help:"Flow whose saved progress to discard (planning|review)."`
}

func (c *ProgressClearCmd) Run(ctx *Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	store, err := ctx.ProgressStore(user.ID)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx.context(), models.Flow(c.Flow)); err != nil {
		return err
	}
	fmt.Printf("✓ Cleared saved %s progress\n", c.Flow)
	return nil
}
