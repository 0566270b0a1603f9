// Package wizard drives the weekly Planning and Review flows. A Controller owns
// one session: it derives its inputs, walks the step sequence, applies each
// task mutation as it happens, and persists progress after every change so the
// session can resume.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/tandem/internal/derive"
	"github.com/julianstephens/tandem/internal/gate"
	"github.com/julianstephens/tandem/internal/logger"
	"github.com/julianstephens/tandem/internal/models"
	"github.com/julianstephens/tandem/internal/progress"
	"github.com/julianstephens/tandem/internal/storage"
	"github.com/julianstephens/tandem/internal/week"
)

const (
	queueSize    = 16
	effectBuffer = 64
)

type Config struct {
	Flow     models.Flow
	UserID   string
	WeekID   week.ID
	Location *time.Location
	// Windows, when set, makes Open refuse a flow whose window is closed.
	Windows *gate.Windows
}

func (c Config) validate() error {
	if _, err := models.ParseFlow(string(c.Flow)); err != nil {
		return err
	}
	if c.UserID == "" {
		return errors.New("user id is required")
	}
	if !c.WeekID.Valid() {
		return fmt.Errorf("invalid week %q", c.WeekID)
	}
	return nil
}

type Deps struct {
	Store storage.Provider
	// Progress defaults to Store.Progress(UserID).
	Progress progress.Store
	Derive   *derive.Service
	Now      func() time.Time
	NewID    func() string
	Logger   *log.Logger
}

type request struct {
	ctx   context.Context
	ev    Event
	reply chan error
}

// retryOp is a store mutation plus the in-memory step that follows its success.
type retryOp struct {
	name string
	run  func(ctx context.Context) error
	then func()
	// quiet ops publish on success without settling or persisting.
	quiet bool
}

type Controller struct {
	cfg  Config
	deps Deps
	log  *log.Logger

	requests  chan request
	effects   chan Effect
	done      chan struct{}
	sendMu    sync.RWMutex
	closed    bool
	closeOnce sync.Once

	stateMu  sync.RWMutex
	state    State
	notifyMu sync.Mutex
	subs     map[int]func(State)
	nextSub  int

	// Owned by the worker goroutine once Open returns.
	rec      progress.Record
	in       derive.Inputs
	seq      Sequence
	partner  string
	applied  map[string]bool
	pending  *retryOp
	finished bool
	streak   int
}

// Open starts a session. It derives inputs, resumes any progress saved for
// the same week (discarding progress from other weeks), and starts the worker.
func Open(ctx context.Context, cfg Config, deps Deps) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if deps.Store == nil {
		return nil, errors.New("wizard requires a store")
	}
	if deps.Progress == nil {
		deps.Progress = deps.Store.Progress(cfg.UserID)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Derive == nil {
		deps.Derive = &derive.Service{Store: deps.Store, Now: deps.Now, Location: cfg.Location}
	}
	if cfg.Windows != nil && !cfg.Windows.IsWindowOpen(cfg.Flow, deps.Now(), cfg.Location) {
		return nil, ErrWindowClosed
	}

	c := &Controller{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger,
		requests: make(chan request, queueSize),
		effects:  make(chan Effect, effectBuffer),
		done:     make(chan struct{}),
		subs:     make(map[int]func(State)),
	}
	if c.log == nil {
		c.log = logger.With("flow", cfg.Flow, "user", cfg.UserID, "week", cfg.WeekID)
	}

	user, err := deps.Store.GetUser(ctx, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.HasPartner() {
		c.partner = *user.PartnerID
	}

	if err := c.begin(ctx, true); err != nil {
		return nil, err
	}

	// A resumed session may land on exhausted items or an uncommitted terminal step.
	// A failed commit leaves the session open with Retry available.
	if c.exhausted() || isTerminal(c.rec.Step) {
		if err := c.settle(ctx); err != nil {
			c.log.Warn("failed to commit resumed session", "step", c.rec.Step, "error", err)
		}
	} else {
		c.publish()
	}

	go c.run()
	return c, nil
}

// begin derives inputs and resets the session, resuming saved progress when asked.
func (c *Controller) begin(ctx context.Context, resume bool) error {
	in, err := c.deps.Derive.Snapshot(ctx, c.cfg.UserID, c.cfg.Flow, c.cfg.WeekID)
	if err != nil {
		return fmt.Errorf("failed to derive %s inputs: %w", c.cfg.Flow, err)
	}

	var seq Sequence
	if c.cfg.Flow == models.FlowPlanning {
		seq = PlanningSequence(len(in.Rollover), len(in.Requests))
	} else {
		seq = ReviewSequence(len(in.ReviewTasks))
	}

	c.in = in
	c.seq = seq
	c.streak = in.Streak
	c.applied = make(map[string]bool)
	c.pending = nil
	c.finished = false

	var saved *progress.Record
	if resume {
		saved = c.loadProgress(ctx)
	}
	if saved == nil {
		c.rec = progress.New(c.cfg.UserID, c.cfg.Flow, c.cfg.WeekID)
		c.rec.Step = seq.First()
	} else {
		c.rec = saved.Clone()
		c.rec.Step = seq.Clamp(saved.Step)
		c.log.Debug("resuming progress", "stored_step", saved.Step, "step", c.rec.Step)
	}
	c.rec.CurrentIndex = c.firstOpen(c.rec.Step)
	return nil
}

func (c *Controller) loadProgress(ctx context.Context) *progress.Record {
	rec, err := c.deps.Progress.Load(ctx, c.cfg.Flow)
	if err != nil {
		c.log.Warn("failed to load progress", "error", err)
		c.emit(EffectError{Message: "Saved progress could not be read; starting fresh."})
		return nil
	}
	if rec == nil {
		return nil
	}
	if rec.IsStaleFor(c.cfg.WeekID) || rec.Flow != c.cfg.Flow || (rec.UserID != "" && rec.UserID != c.cfg.UserID) {
		c.log.Debug("discarding stale progress", "stored_week", rec.WeekID)
		if err := c.deps.Progress.Clear(ctx, c.cfg.Flow); err != nil {
			c.log.Warn("failed to clear stale progress", "error", err)
		}
		return nil
	}
	return rec
}

func (c *Controller) run() {
	defer close(c.done)
	for req := range c.requests {
		req.reply <- c.handle(req.ctx, req.ev)
	}
}

// Dispatch queues ev and waits until it has been fully handled. Events are
// handled one at a time in the order they arrive.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	req := request{ctx: ctx, ev: ev, reply: make(chan error, 1)}

	c.sendMu.RLock()
	if c.closed {
		c.sendMu.RUnlock()
		return ErrClosed
	}
	c.requests <- req
	c.sendMu.RUnlock()

	return <-req.reply
}

// Close stops accepting events, lets queued work finish, and closes Effects.
func (c *Controller) Close() error {
	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.requests)
	}
	c.sendMu.Unlock()

	<-c.done
	c.closeOnce.Do(func() { close(c.effects) })
	return nil
}

// Effects delivers one-shot signals. It has a single consumer.
func (c *Controller) Effects() <-chan Effect {
	return c.effects
}

// State returns the latest snapshot.
func (c *Controller) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Subscribe calls fn with the current state and after every transition until
// cancel is called. fn runs on the worker goroutine and must not call Dispatch.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.notifyMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	fn(c.State())
	c.notifyMu.Unlock()

	return func() {
		c.notifyMu.Lock()
		delete(c.subs, id)
		c.notifyMu.Unlock()
	}
}

func (c *Controller) emit(e Effect) {
	select {
	case c.effects <- e:
	default:
		c.log.Warn("dropping effect, consumer is not keeping up", "effect", fmt.Sprintf("%T", e))
	}
}

func (c *Controller) publish() {
	s := c.snapshot()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()

	for _, fn := range c.subs {
		fn(s)
	}
}

func (c *Controller) snapshot() State {
	r := c.rec.Clone()
	return State{
		Flow:       c.cfg.Flow,
		UserID:     c.cfg.UserID,
		WeekID:     c.cfg.WeekID,
		Sequence:   append(Sequence(nil), c.seq...),
		Step:       r.Step,
		Index:      r.CurrentIndex,
		Rollover:   cloneTasks(c.in.Rollover),
		Requests:   cloneTasks(c.in.Requests),
		Tasks:      cloneTasks(c.in.ReviewTasks),
		Mode:       r.Mode,
		Rating:     r.Rating,
		Note:       r.Note,
		Outcomes:   r.Outcomes,
		TaskNotes:  r.TaskNotes,
		Decisions:  r.Decisions,
		TasksAdded: r.TasksAdded,
		RolledOver: r.RolledOver,
		Accepted:   r.Accepted,
		Streak:     c.streak,
		Completion: derive.CompletionPercent(c.outcomes()),
		HasPartner: c.partner != "",
		CanRetry:   c.pending != nil,
		Completed:  c.finished,
	}
}

func (c *Controller) handle(ctx context.Context, ev Event) error {
	if ev == nil {
		return ErrInvalidEvent
	}
	c.log.Debug("handling event", "event", fmt.Sprintf("%T", ev), "step", c.rec.Step)

	if c.finished {
		switch ev.(type) {
		case Back, ExitWithSave:
			c.emit(EffectExit{Completed: true})
			return nil
		}
		return ErrInvalidEvent
	}

	switch ev.(type) {
	case Retry:
		if c.pending == nil {
			return ErrInvalidEvent
		}
		return c.apply(ctx, *c.pending)
	case Back:
		return c.back(ctx)
	case ExitWithSave:
		c.persist(ctx)
		c.emit(EffectExit{Completed: false})
		return nil
	case Discard:
		return c.discard(ctx)
	}

	if c.cfg.Flow == models.FlowPlanning {
		return c.handlePlanning(ctx, ev)
	}
	return c.handleReview(ctx, ev)
}

// apply runs a store mutation. On failure the accumulator keeps its new values,
// the mutation is held for Retry, and a StoreError is returned.
func (c *Controller) apply(ctx context.Context, op retryOp) error {
	if err := op.run(ctx); err != nil {
		c.pending = &op
		c.log.Error("store mutation failed", "op", op.name, "error", err)
		if !op.quiet {
			c.persist(ctx)
		}
		c.publish()
		c.emit(EffectError{Message: fmt.Sprintf("Could not %s. Try again.", op.name), Retryable: true})
		return &StoreError{Op: op.name, Err: err}
	}

	c.pending = nil
	if op.then != nil {
		op.then()
	}
	if op.quiet {
		c.publish()
		return nil
	}
	return c.settle(ctx)
}

// settle moves past exhausted item steps, commits on reaching the terminal
// step, and otherwise persists and publishes.
func (c *Controller) settle(ctx context.Context) error {
	c.pending = nil
	for c.exhausted() {
		c.forward()
	}
	if c.finished {
		c.finalize(ctx)
		return nil
	}
	if isTerminal(c.rec.Step) {
		return c.apply(ctx, c.commitOp())
	}
	c.persist(ctx)
	c.publish()
	return nil
}

func (c *Controller) persist(ctx context.Context) {
	c.rec.UpdatedAt = c.deps.Now().UTC()
	if err := c.deps.Progress.Save(ctx, c.rec.Clone()); err != nil {
		c.log.Warn("failed to save progress", "error", err)
		c.emit(EffectError{Message: "Progress could not be saved; it will be saved with your next change."})
	}
}

func (c *Controller) invalid(field, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	c.emit(EffectError{Message: msg})
	return &ValidationError{Field: field, Message: msg}
}

func (c *Controller) moveTo(step models.Step) {
	if c.rec.Step == step {
		return
	}
	c.log.Debug("step transition", "from", c.rec.Step, "to", step)
	c.rec.Step = step
	c.rec.CurrentIndex = 0
	c.emit(EffectNavigate{Step: step})
}

// forward enters the next step at its first undecided item.
func (c *Controller) forward() {
	i := c.seq.IndexOf(c.rec.Step)
	if i < 0 || i+1 >= len(c.seq) {
		return
	}
	next := c.seq[i+1]
	c.moveTo(next)
	c.rec.CurrentIndex = c.firstOpen(next)
}

func (c *Controller) back(ctx context.Context) error {
	c.pending = nil
	if isItemStep(c.rec.Step) && c.rec.CurrentIndex > 0 {
		c.rec.CurrentIndex--
		c.persist(ctx)
		c.publish()
		return nil
	}

	i := c.seq.IndexOf(c.rec.Step)
	if i <= 0 {
		c.emit(EffectExit{Completed: false})
		return nil
	}
	prev := c.seq[i-1]
	c.moveTo(prev)
	if n := len(c.items(prev)); n > 0 {
		c.rec.CurrentIndex = n - 1
	}
	c.persist(ctx)
	c.publish()
	return nil
}

func (c *Controller) discard(ctx context.Context) error {
	if err := c.deps.Progress.Clear(ctx, c.cfg.Flow); err != nil {
		c.log.Warn("failed to clear progress", "error", err)
		c.emit(EffectError{Message: "Saved progress could not be removed."})
	}
	return c.apply(ctx, retryOp{
		name:  "restart the session",
		run:   c.restart,
		quiet: true,
	})
}

func (c *Controller) restart(ctx context.Context) error {
	if err := c.begin(ctx, false); err != nil {
		return err
	}
	c.emit(EffectNavigate{Step: c.rec.Step})
	return nil
}

func (c *Controller) commitOp() retryOp {
	user, w, now := c.cfg.UserID, c.cfg.WeekID, c.deps.Now()
	op := retryOp{then: func() { c.finished = true }}

	if c.cfg.Flow == models.FlowPlanning {
		op.name = "mark the week as planned"
		op.run = func(ctx context.Context) error {
			return c.deps.Store.MarkPlanned(ctx, user, w, now)
		}
		return op
	}

	mode := c.rec.Mode
	if mode == "" {
		mode = models.ReviewModeSolo
	}
	rating, note := copyInt(c.rec.Rating), c.rec.Note
	op.name = "save the review"
	op.run = func(ctx context.Context) error {
		if err := c.deps.Store.UpdateWeekReview(ctx, user, w, rating, note, mode); err != nil {
			return err
		}
		return c.deps.Store.MarkReviewed(ctx, user, w, now)
	}
	return op
}

// finalize runs once after a successful commit.
func (c *Controller) finalize(ctx context.Context) {
	streak, err := c.deps.Derive.CurrentStreak(ctx, c.cfg.UserID)
	if err != nil {
		c.log.Warn("failed to recompute streak", "error", err)
	} else {
		c.streak = streak
	}

	if err := c.deps.Progress.Clear(ctx, c.cfg.Flow); err != nil {
		c.log.Warn("failed to clear progress", "error", err)
	}

	c.publish()
	if c.cfg.Flow == models.FlowPlanning {
		c.emit(EffectMessage{Text: fmt.Sprintf("Week %s planned", c.cfg.WeekID)})
	} else {
		c.emit(EffectMessage{Text: fmt.Sprintf("Week %s reviewed", c.cfg.WeekID)})
	}
	c.log.Info("wizard completed", "streak", c.streak)
}

func (c *Controller) items(step models.Step) []models.Task {
	switch step {
	case models.StepRollover:
		return c.in.Rollover
	case models.StepPartnerRequests:
		return c.in.Requests
	case models.StepTaskReview:
		return c.in.ReviewTasks
	}
	return nil
}

func (c *Controller) current() (models.Task, bool) {
	items := c.items(c.rec.Step)
	if c.rec.CurrentIndex < 0 || c.rec.CurrentIndex >= len(items) {
		return models.Task{}, false
	}
	return items[c.rec.CurrentIndex], true
}

func (c *Controller) exhausted() bool {
	return isItemStep(c.rec.Step) && c.rec.CurrentIndex >= len(c.items(c.rec.Step))
}

// firstOpen returns the index of the first item still needing a decision.
func (c *Controller) firstOpen(step models.Step) int {
	items := c.items(step)
	for i, t := range items {
		if c.isOpen(step, t) {
			return i
		}
	}
	return len(items)
}

// isOpen reports whether t still needs a decision, or has one whose store
// mutation never landed.
func (c *Controller) isOpen(step models.Step, t models.Task) bool {
	switch step {
	case models.StepRollover:
		d := c.rec.Decisions[t.ID]
		return d == "" || (d == progress.DecisionAccepted && !c.applied[t.ID])
	case models.StepPartnerRequests:
		d := c.rec.Decisions[t.ID]
		return d == "" || (d != progress.DecisionDiscussed && !c.applied[t.ID])
	case models.StepTaskReview:
		o, ok := c.rec.Outcomes[t.ID]
		return !ok || (!c.applied[t.ID] && t.Status != o)
	}
	return false
}

// outcomes returns the effective outcome of every reviewable task that has one.
func (c *Controller) outcomes() []models.TaskStatus {
	var out []models.TaskStatus
	for _, t := range c.in.ReviewTasks {
		if o, ok := c.rec.Outcomes[t.ID]; ok {
			out = append(out, o)
		} else if t.Status.IsOutcome() {
			out = append(out, t.Status)
		}
	}
	return out
}

func (c *Controller) newTask(title, notes string, kind models.OwnerKind) models.Task {
	now := c.deps.Now().UTC()
	return models.Task{
		ID:        c.deps.NewID(),
		Title:     title,
		Notes:     notes,
		OwnerID:   c.cfg.UserID,
		OwnerKind: kind,
		CreatedBy: c.cfg.UserID,
		WeekID:    c.cfg.WeekID,
		Status:    models.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
