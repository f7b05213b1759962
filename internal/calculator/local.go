package calculator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Funz/fz-go/pkg/logger"
	"github.com/Funz/fz-go/pkg/utils"
)

// localAdapter spawns the launch command as a child process per case. The
// command receives the case directory as its argument and runs inside it;
// stdout and stderr are captured to files in the same directory.
type localAdapter struct {
	label   string
	command string

	mu    sync.Mutex
	execs map[Handle]*localExec
}

type localExec struct {
	cmd  *exec.Cmd
	dir  string
	done chan struct{}
	exit int
	err  error
}

// NewLocal creates an adapter for the local-process variant. A launcher
// given as a relative path is resolved against the process working directory
// here, once, so that Probe and Submit agree on the same program even though
// each case runs with its own directory as cwd.
func NewLocal(label, command string) Adapter {
	return &localAdapter{
		label:   label,
		command: resolveCommand(command),
		execs:   make(map[Handle]*localExec),
	}
}

func resolveCommand(command string) string {
	prog := launcherProgram(command)
	if !strings.ContainsRune(prog, '/') || filepath.IsAbs(prog) {
		return command
	}
	abs, err := filepath.Abs(prog)
	if err != nil {
		return command
	}
	i := strings.Index(command, prog)
	return command[:i] + abs + command[i+len(prog):]
}

func (a *localAdapter) Label() string {
	return a.label
}

// Probe checks the launcher program is present before any case is dispatched
func (a *localAdapter) Probe(ctx context.Context) error {
	prog := launcherProgram(a.command)
	if strings.ContainsRune(prog, '/') {
		if _, err := os.Stat(prog); err != nil {
			return fmt.Errorf("%w: launcher %s: %v", ErrUnavailable, prog, err)
		}
		return nil
	}
	if _, err := exec.LookPath(prog); err != nil {
		return fmt.Errorf("%w: launcher %s not found in PATH", ErrUnavailable, prog)
	}
	return nil
}

func launcherProgram(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	return fields[0]
}

func (a *localAdapter) Submit(ctx context.Context, sub Submission) (Handle, error) {
	outF, err := os.Create(filepath.Join(sub.Dir, OutFile))
	if err != nil {
		return "", fmt.Errorf("failed to capture output for case %s: %w", sub.Name, err)
	}
	errF, err := os.Create(filepath.Join(sub.Dir, ErrFile))
	if err != nil {
		outF.Close()
		return "", fmt.Errorf("failed to capture output for case %s: %w", sub.Name, err)
	}

	// The case dir is passed as a positional argument so paths with
	// spaces survive word-splitting.
	cmd := exec.Command("sh", "-c", a.command+` "$1"`, "sh", sub.Dir)
	cmd.Dir = sub.Dir
	cmd.Stdout = outF
	cmd.Stderr = errF
	if err := cmd.Start(); err != nil {
		outF.Close()
		errF.Close()
		return "", fmt.Errorf("failed to start launcher for case %s: %w", sub.Name, err)
	}

	e := &localExec{cmd: cmd, dir: sub.Dir, done: make(chan struct{})}
	h := Handle(utils.GenerateCaseID())
	a.mu.Lock()
	a.execs[h] = e
	a.mu.Unlock()

	logger.Debug("launcher started", "calculator", a.label, "case", sub.Name, "pid", cmd.Process.Pid)

	go func() {
		defer close(e.done)
		werr := cmd.Wait()
		outF.Close()
		errF.Close()
		if werr == nil {
			return
		}
		var exitErr *exec.ExitError
		if errors.As(werr, &exitErr) {
			e.exit = exitErr.ExitCode()
			return
		}
		e.err = werr
	}()

	return h, nil
}

func (a *localAdapter) Poll(ctx context.Context, h Handle) (Status, error) {
	e, err := a.lookup(h)
	if err != nil {
		return Status{}, err
	}

	select {
	case <-e.done:
	default:
		return Status{State: StateRunning}, nil
	}

	if e.err != nil {
		a.release(h)
		return Status{State: StateFailed, Reason: e.err.Error()}, nil
	}
	out, err := os.ReadFile(filepath.Join(e.dir, OutFile))
	if err != nil {
		return Status{}, fmt.Errorf("failed to read captured output: %w", err)
	}
	a.release(h)
	return Status{State: StateDone, ExitCode: e.exit, Output: string(out)}, nil
}

// release reclaims a handle once its terminal state has been reported; a
// further Poll or Cancel on it reports ErrUnknownHandle.
func (a *localAdapter) release(h Handle) {
	a.mu.Lock()
	delete(a.execs, h)
	a.mu.Unlock()
}

// Cancel kills the launcher process. Killed processes report a nonzero exit
// through the normal Wait path; a process that already exited is left alone.
func (a *localAdapter) Cancel(ctx context.Context, h Handle) error {
	e, err := a.lookup(h)
	if err != nil {
		return err
	}

	select {
	case <-e.done:
		return nil
	default:
	}

	if e.cmd.Process == nil {
		return nil
	}
	if err := e.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to terminate launcher: %w", err)
	}
	return nil
}

func (a *localAdapter) lookup(h Handle) (*localExec, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.execs[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return e, nil
}
