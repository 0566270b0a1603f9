package wizard

import (
	"errors"
	"fmt"

	"github.com/julianstephens/tandem/internal/models"
)

// Effect is a one-shot signal for the presentation shell.
type Effect interface {
	isEffect()
}

type EffectNavigate struct {
	Step models.Step
}

type EffectError struct {
	Message   string
	Retryable bool
}

type EffectMessage struct {
	Text string
}

// EffectExit asks the shell to close the flow. Completed is true once the
// final commit has succeeded.
type EffectExit struct {
	Completed bool
}

func (EffectNavigate) isEffect() {}
func (EffectError) isEffect()    {}
func (EffectMessage) isEffect()  {}
func (EffectExit) isEffect()     {}

var (
	ErrInvalidEvent = errors.New("event not valid for the current step")
	ErrClosed       = errors.New("wizard is closed")
	ErrWindowClosed = errors.New("wizard window is closed")
)

// ValidationError reports user input rejected before it reached the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StoreError reports a task/week store mutation that failed. The mutation can
// be re-issued with Retry.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
