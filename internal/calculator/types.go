// Package calculator runs compiled cases on heterogeneous execution targets.
// The two variants, local process and remote daemon, share one submit/poll
// capability; the variant is selected once per study, not per case.
package calculator

import (
	"context"
	"errors"
	"fmt"

	"github.com/Funz/fz-go/pkg/config"
)

// ErrUnavailable reports an execution target that cannot be reached.
var ErrUnavailable = errors.New("calculator unavailable")

// ErrUnknownHandle reports a poll or cancel for a case the adapter never saw.
var ErrUnknownHandle = errors.New("unknown case handle")

// Captured solver output inside a case directory.
const (
	OutFile = "out.txt"
	ErrFile = "err.txt"
)

// Submission is one compiled case handed to a calculator.
type Submission struct {
	Name string // case name, for logging and the remote daemon
	Dir  string // compiled case directory, exclusively owned by the case
}

// Handle identifies a submitted case on its adapter.
type Handle string

// State of a submitted case as observed by polling.
type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Status is one poll observation. ExitCode and Output are valid once the
// state is Done; Reason is valid once the state is Failed.
type Status struct {
	State    State
	ExitCode int
	Output   string
	Reason   string
}

// Adapter is the capability over one execution target. Implementations are
// safe for concurrent use by the orchestrator's workers.
type Adapter interface {
	// Submit starts the case and returns a handle for polling
	Submit(ctx context.Context, sub Submission) (Handle, error)
	// Poll reports the current state of a submitted case
	Poll(ctx context.Context, h Handle) (Status, error)
	// Cancel best-effort terminates a submitted case
	Cancel(ctx context.Context, h Handle) error
	// Probe checks that the execution target is reachable
	Probe(ctx context.Context) error
	// Label identifies the target in logs and failure accounting
	Label() string
}

// New selects the adapter variant for a calculator and model. This is the
// Model x Calculator compatibility check, performed once per study.
func New(cfg *config.Calculator, modelID string) (Adapter, error) {
	command, ok := cfg.Command(modelID)
	if !ok {
		return nil, fmt.Errorf("calculator %s does not support model %s", cfg.Label(), modelID)
	}
	if cfg.IsRemote() {
		return NewRemote(cfg.URI, cfg.Label(), modelID, command), nil
	}
	return NewLocal(cfg.Label(), command), nil
}
