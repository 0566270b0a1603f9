// Package gate decides whether a weekly wizard may be entered at a given
// wall-clock time. Everything here is a pure function of its inputs.
package gate

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/tandem/internal/constants"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/week"
)

// Window is a weekday and local time of day, minute precision.
type Window struct {
	Day time.Weekday
	At  string // HH:MM
}

// ParseWindow parses values such as "friday 18:00" or "Sun 23:59".
func ParseWindow(s string) (Window, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Window{}, fmt.Errorf("invalid window %q: expected \"<weekday> HH:MM\"", s)
	}
	day, ok := weekdays[strings.ToLower(fields[0])]
	if !ok {
		return Window{}, fmt.Errorf("invalid weekday: %s", fields[0])
	}
	if _, err := time.Parse(constants.TimeFormat, fields[1]); err != nil {
		return Window{}, fmt.Errorf("invalid time %q: %w", fields[1], err)
	}
	return Window{Day: day, At: fields[1]}, nil
}

func (w Window) String() string {
	return fmt.Sprintf("%s %s", w.Day, w.At)
}

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Windows holds the configurable opening rules for both flows.
type Windows struct {
	// PlanningOpens is when planning for the following week becomes available.
	PlanningOpens Window
	ReviewOpens   Window
	// ReviewCloses is inclusive through the end of the named minute.
	ReviewCloses Window
}

func DefaultWindows() Windows {
	return Windows{
		PlanningOpens: Window{Day: constants.DefaultPlanningOpensDay, At: constants.DefaultPlanningOpensTime},
		ReviewOpens:   Window{Day: constants.DefaultReviewOpensDay, At: constants.DefaultReviewOpensTime},
		ReviewCloses:  Window{Day: constants.DefaultReviewClosesDay, At: constants.DefaultReviewClosesTime},
	}
}

// Validate rejects a review window that does not open and close inside the same
// Monday-start ISO week, since such a window would never be open.
func (ws Windows) Validate() error {
	if ws.ReviewCloses.offset() <= ws.ReviewOpens.offset() {
		return fmt.Errorf("review window closes (%s) must come after it opens (%s) within a Monday-Sunday week",
			ws.ReviewCloses, ws.ReviewOpens)
	}
	return nil
}

// offset is the number of minutes from Monday 00:00 to w.
func (w Window) offset() int {
	clock, err := time.Parse(constants.TimeFormat, w.At)
	if err != nil {
		clock = time.Time{}
	}
	return ((int(w.Day)+6)%7)*24*60 + clock.Hour()*60 + clock.Minute()
}

// IsWindowOpen evaluates the default windows.
func IsWindowOpen(flow models.Flow, now time.Time, loc *time.Location) bool {
	return DefaultWindows().IsWindowOpen(flow, now, loc)
}

// IsWindowOpen reports whether flow may be entered at now, evaluated in loc.
func (ws Windows) IsWindowOpen(flow models.Flow, now time.Time, loc *time.Location) bool {
	loc = orLocal(loc)
	switch flow {
	case models.FlowPlanning:
		owning := ws.PlanningWeek(now, loc)
		return !now.Before(at(owning.Previous(), ws.PlanningOpens, loc))
	case models.FlowReview:
		wk := week.Of(now.In(loc))
		opens := at(wk, ws.ReviewOpens, loc)
		closes := at(wk, ws.ReviewCloses, loc).Add(time.Minute - time.Nanosecond)
		return !now.Before(opens) && !now.After(closes)
	}
	return false
}

// PlanningWeek returns the week a planning session started at now belongs to.
// Once the planning window opens near the end of a week, planning targets the
// next week.
func (ws Windows) PlanningWeek(now time.Time, loc *time.Location) week.ID {
	loc = orLocal(loc)
	wk := week.Of(now.In(loc))
	if !now.Before(at(wk, ws.PlanningOpens, loc)) {
		return wk.Next()
	}
	return wk
}

// ReviewWeek returns the week a review session started at now looks back on.
func (ws Windows) ReviewWeek(now time.Time, loc *time.Location) week.ID {
	return week.Of(now.In(orLocal(loc)))
}

// CurrentWeek returns the week a session of flow started at now belongs to.
func (ws Windows) CurrentWeek(flow models.Flow, now time.Time, loc *time.Location) week.ID {
	if flow == models.FlowPlanning {
		return ws.PlanningWeek(now, loc)
	}
	return ws.ReviewWeek(now, loc)
}

// NextOpening returns the first instant after now at which flow opens for a new week.
func (ws Windows) NextOpening(flow models.Flow, now time.Time, loc *time.Location) time.Time {
	loc = orLocal(loc)
	if flow == models.FlowPlanning {
		return at(ws.PlanningWeek(now, loc), ws.PlanningOpens, loc)
	}
	wk := week.Of(now.In(loc))
	if opens := at(wk, ws.ReviewOpens, loc); opens.After(now) {
		return opens
	}
	return at(wk.Next(), ws.ReviewOpens, loc)
}

// at resolves a Window inside a specific ISO week.
func at(wk week.ID, w Window, loc *time.Location) time.Time {
	clock, err := time.Parse(constants.TimeFormat, w.At)
	if err != nil {
		clock = time.Time{}
	}
	day := wk.Start(loc).AddDate(0, 0, (int(w.Day)+6)%7)
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
