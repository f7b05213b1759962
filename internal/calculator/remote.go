package calculator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// remoteAdapter talks to an fzd daemon over HTTP/JSON. Submission stages the
// case directory to the daemon as a file map; once the daemon reports the case
// done, the produced files are retrieved back into the local case directory.
type remoteAdapter struct {
	base    string
	label   string
	model   string
	command string
	client  *http.Client

	mu   sync.Mutex
	dirs map[Handle]string // handle -> local case dir for retrieval
}

// NewRemote creates an adapter for the remote-daemon variant
func NewRemote(baseURL, label, modelID, command string) Adapter {
	return &remoteAdapter{
		base:    strings.TrimRight(baseURL, "/"),
		label:   label,
		model:   modelID,
		command: command,
		client:  &http.Client{Timeout: 30 * time.Second},
		dirs:    make(map[Handle]string),
	}
}

func (a *remoteAdapter) Label() string {
	return a.label
}

func (a *remoteAdapter) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, a.base, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s responded %d", ErrUnavailable, a.base, resp.StatusCode)
	}
	return nil
}

func (a *remoteAdapter) Submit(ctx context.Context, sub Submission) (Handle, error) {
	files, err := readCaseFiles(sub.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to stage case %s: %w", sub.Name, err)
	}

	var resp SubmitResponse
	submitReq := SubmitRequest{
		Name:    sub.Name,
		Model:   a.model,
		Command: a.command,
		Files:   files,
	}
	if err := a.postJSON(ctx, "/api/v1/cases", &submitReq, &resp); err != nil {
		return "", fmt.Errorf("failed to submit case %s: %w", sub.Name, err)
	}

	h := Handle(resp.ID)
	a.mu.Lock()
	a.dirs[h] = sub.Dir
	a.mu.Unlock()
	return h, nil
}

func (a *remoteAdapter) Poll(ctx context.Context, h Handle) (Status, error) {
	var status CaseStatusResponse
	if err := a.getJSON(ctx, "/api/v1/cases/"+string(h), &status); err != nil {
		return Status{}, err
	}

	switch status.Status {
	case "running", "queued":
		return Status{State: StateRunning}, nil
	case "failed":
		return Status{State: StateFailed, Reason: status.Reason}, nil
	case "done":
		output, err := a.retrieve(ctx, h)
		if err != nil {
			return Status{}, err
		}
		return Status{State: StateDone, ExitCode: status.ExitCode, Output: output}, nil
	default:
		return Status{}, fmt.Errorf("daemon reported unknown case status %q", status.Status)
	}
}

func (a *remoteAdapter) Cancel(ctx context.Context, h Handle) error {
	return a.postJSON(ctx, "/api/v1/cases/"+string(h)+"/cancel", nil, nil)
}

// retrieve pulls the produced files back into the local case directory and
// returns the captured solver output.
func (a *remoteAdapter) retrieve(ctx context.Context, h Handle) (string, error) {
	a.mu.Lock()
	dir := a.dirs[h]
	a.mu.Unlock()
	if dir == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}

	var files CaseFilesResponse
	if err := a.getJSON(ctx, "/api/v1/cases/"+string(h)+"/files", &files); err != nil {
		return "", fmt.Errorf("failed to retrieve case files: %w", err)
	}
	for name, content := range files.Files {
		// File names from the daemon are flat; anything else is rejected
		if name != filepath.Base(name) {
			return "", fmt.Errorf("daemon returned unsafe file name %q", name)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("failed to write retrieved file %s: %w", name, err)
		}
	}
	return files.Files[OutFile], nil
}

func (a *remoteAdapter) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, out)
}

func (a *remoteAdapter) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+path, nil)
	if err != nil {
		return err
	}
	return a.do(req, out)
}

func (a *remoteAdapter) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// readCaseFiles loads every regular file in the case directory as text
func readCaseFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		files[entry.Name()] = string(data)
	}
	return files, nil
}
