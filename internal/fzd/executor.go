package fzd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Funz/fz-go/internal/calculator"
	"github.com/Funz/fz-go/pkg/logger"
	"github.com/Funz/fz-go/pkg/utils"
)

// Executor stages submitted cases under a work root and runs their launch
// commands through the local-process adapter.
type Executor struct {
	root  string
	store *CaseStore

	mu      sync.Mutex
	running map[string]runningCase
}

type runningCase struct {
	adapter calculator.Adapter
	handle  calculator.Handle
}

func NewExecutor(root string, store *CaseStore) *Executor {
	return &Executor{
		root:    root,
		store:   store,
		running: make(map[string]runningCase),
	}
}

// Start stages the submitted files into a fresh directory, spawns the launch
// command, and watches it to completion in the background.
func (e *Executor) Start(req calculator.SubmitRequest) (string, error) {
	id := utils.GenerateCaseID()
	dir := filepath.Join(e.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to stage case: %w", err)
	}
	for name, content := range req.Files {
		if name != filepath.Base(name) {
			return "", fmt.Errorf("unsafe file name %q", name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("failed to stage file %s: %w", name, err)
		}
	}

	if _, err := e.store.Create(id, req.Name, req.Model, req.Command, dir); err != nil {
		return "", err
	}

	adapter := calculator.NewLocal("fzd", req.Command)
	handle, err := adapter.Submit(context.Background(), calculator.Submission{Name: req.Name, Dir: dir})
	if err != nil {
		e.store.SetStatus(id, CaseFailed, -1, err.Error())
		return id, nil
	}
	e.store.SetStatus(id, CaseRunning, 0, "")

	e.mu.Lock()
	e.running[id] = runningCase{adapter: adapter, handle: handle}
	e.mu.Unlock()

	logger.Info("case staged", "id", id, "case", req.Name, "model", req.Model)
	go e.watch(id, adapter, handle)
	return id, nil
}

// watch polls the launcher until it reaches a terminal state
func (e *Executor) watch(id string, adapter calculator.Adapter, handle calculator.Handle) {
	for {
		status, err := adapter.Poll(context.Background(), handle)
		if err != nil {
			e.finish(id, CaseFailed, -1, err.Error())
			return
		}
		switch status.State {
		case calculator.StateRunning:
			time.Sleep(50 * time.Millisecond)
		case calculator.StateFailed:
			e.finish(id, CaseFailed, -1, status.Reason)
			return
		case calculator.StateDone:
			e.finish(id, CaseDone, status.ExitCode, "")
			return
		}
	}
}

func (e *Executor) finish(id, status string, exitCode int, reason string) {
	e.mu.Lock()
	delete(e.running, id)
	e.mu.Unlock()
	if _, err := e.store.SetStatus(id, status, exitCode, reason); err != nil {
		logger.Error("failed to record case completion", "id", id, "error", err)
	}
	logger.Info("case finished", "id", id, "status", status, "exit", exitCode)
}

// Cancel best-effort terminates a running case
func (e *Executor) Cancel(id string) error {
	e.mu.Lock()
	rc, ok := e.running[id]
	e.mu.Unlock()
	if !ok {
		// Already terminal or never started: nothing to kill
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := rc.adapter.Cancel(ctx, rc.handle)
	if errors.Is(err, calculator.ErrUnknownHandle) {
		// The case reached a terminal state between lookup and cancel
		return nil
	}
	return err
}

// Files returns every regular file the case produced, keyed by name
func (e *Executor) Files(id string) (map[string]string, error) {
	rec, ok := e.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("case not found: %s", id)
	}
	entries, err := os.ReadDir(rec.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read case directory: %w", err)
	}
	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(rec.Dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files[entry.Name()] = string(data)
	}
	return files, nil
}
