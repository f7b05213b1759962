package study

import (
	"fmt"

	"github.com/Funz/fz-go/internal/extract"
)

// Status is the lifecycle state of one case
type Status string

const (
	StatusPending  Status = "pending"
	StatusCompiled Status = "compiled"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timedout"
)

// Failure reasons recorded alongside terminal states
const (
	ReasonCancelled          = "Cancelled"
	ReasonNoResultsExtracted = "NoResultsExtracted"
)

// legalTransitions is the table of allowed status changes. Failed and
// TimedOut may re-enter Pending when a retry policy grants another attempt.
var legalTransitions = map[Status][]Status{
	StatusPending:  {StatusCompiled, StatusFailed},
	StatusCompiled: {StatusRunning, StatusFailed},
	StatusRunning:  {StatusDone, StatusFailed, StatusTimedOut},
	StatusFailed:   {StatusPending},
	StatusTimedOut: {StatusPending},
	StatusDone:     {},
}

// Terminal reports whether the status ends the case lifecycle
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusTimedOut
}

// CanTransition reports whether the move from s to next is legal
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Case is one concrete assignment of exactly one value to every variable,
// its compiled input directory, execution status, and extracted results.
// A case is owned by its study; the orchestrator is the only writer once
// dispatch begins.
type Case struct {
	Index      int
	Name       string
	Assignment map[string]Value
	Variables  []string // all variables in discovery order
	ListVars   []string // list-valued subset, drives the name
	Dir        string
	Attempt    int
	Status     Status
	Reason     string // failure reason for Failed/TimedOut
	Results    map[string]extract.Result
}

// TransitionTo moves the case to the next status, enforcing the transition
// table.
func (c *Case) TransitionTo(next Status) error {
	if !c.Status.CanTransition(next) {
		return fmt.Errorf("case %s: illegal transition %s -> %s", c.Name, c.Status, next)
	}
	c.Status = next
	return nil
}

// Fail marks the case failed with a reason
func (c *Case) Fail(reason string) error {
	if err := c.TransitionTo(StatusFailed); err != nil {
		return err
	}
	c.Reason = reason
	return nil
}

// Retry re-enters Pending with an incremented attempt counter. The next
// compilation writes into a fresh attempt-suffixed directory so prior
// attempts are never clobbered.
func (c *Case) Retry() error {
	if err := c.TransitionTo(StatusPending); err != nil {
		return err
	}
	c.Attempt++
	c.Reason = ""
	c.Dir = ""
	return nil
}

// SubstitutionValues returns the raw text per variable for the compiler
func (c *Case) SubstitutionValues() map[string]string {
	values := make(map[string]string, len(c.Assignment))
	for name, v := range c.Assignment {
		values[name] = v.Raw
	}
	return values
}

// DirName returns the case directory name for the current attempt
func (c *Case) DirName() string {
	if c.Attempt == 0 {
		return c.Name
	}
	return fmt.Sprintf("%s-r%d", c.Name, c.Attempt)
}
