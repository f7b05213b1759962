package fzd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Funz/fz-go/internal/calculator"
)

func newTestDaemon(t *testing.T) *httptest.Server {
	t.Helper()
	store := NewCaseStore()
	executor := NewExecutor(t.TempDir(), store)
	server := httptest.NewServer(SetupRouter(NewHandler(store, executor)))
	t.Cleanup(server.Close)
	return server
}

func submitCase(t *testing.T, server *httptest.Server, req calculator.SubmitRequest) string {
	t.Helper()
	body, _ := json.Marshal(req)
	resp, err := http.Post(server.URL+"/api/v1/cases", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var sr calculator.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return sr.ID
}

func waitForStatus(t *testing.T, server *httptest.Server, id, want string) calculator.CaseStatusResponse {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(server.URL + "/api/v1/cases/" + id)
		if err != nil {
			t.Fatalf("get case: %v", err)
		}
		var status calculator.CaseStatusResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Status == want {
			return status
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("case %s never reached status %s", id, want)
	return calculator.CaseStatusResponse{}
}

func TestDaemonRunsSubmittedCase(t *testing.T) {
	server := newTestDaemon(t)

	id := submitCase(t, server, calculator.SubmitRequest{
		Name:    "radius=8",
		Model:   "Moret",
		Command: `echo "KEFF = 0.99231" ; true`,
		Files:   map[string]string{"godiva.m5": "SPHE 8.0\n"},
	})

	status := waitForStatus(t, server, id, CaseDone)
	if status.ExitCode != 0 {
		t.Fatalf("expected exit 0, got %d", status.ExitCode)
	}

	resp, err := http.Get(server.URL + "/api/v1/cases/" + id + "/files")
	if err != nil {
		t.Fatalf("get files: %v", err)
	}
	defer resp.Body.Close()
	var files calculator.CaseFilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		t.Fatalf("decode files: %v", err)
	}
	if files.Files["godiva.m5"] != "SPHE 8.0\n" {
		t.Fatalf("expected staged input among produced files, got %v", files.Files)
	}
	if files.Files[calculator.OutFile] != "KEFF = 0.99231\n" {
		t.Fatalf("expected captured output, got %q", files.Files[calculator.OutFile])
	}
}

func TestDaemonRejectsMissingCommand(t *testing.T) {
	server := newTestDaemon(t)
	body, _ := json.Marshal(calculator.SubmitRequest{Name: "x"})
	resp, err := http.Post(server.URL+"/api/v1/cases", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDaemonUnknownCase(t *testing.T) {
	server := newTestDaemon(t)
	resp, err := http.Get(server.URL + "/api/v1/cases/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDaemonCancelTerminatesCase(t *testing.T) {
	server := newTestDaemon(t)

	id := submitCase(t, server, calculator.SubmitRequest{
		Name:    "slow",
		Model:   "Moret",
		Command: "sleep 30 ;",
		Files:   map[string]string{},
	})
	waitForStatus(t, server, id, CaseRunning)

	resp, err := http.Post(server.URL+"/api/v1/cases/"+id+"/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	status := waitForStatus(t, server, id, CaseDone)
	if status.ExitCode == 0 {
		t.Fatalf("expected killed launcher to report nonzero exit")
	}
}

func TestDaemonListsCases(t *testing.T) {
	server := newTestDaemon(t)

	first := submitCase(t, server, calculator.SubmitRequest{
		Name:    "radius=8",
		Model:   "Moret",
		Command: `echo ok ; true`,
		Files:   map[string]string{},
	})
	waitForStatus(t, server, first, CaseDone)

	resp, err := http.Get(server.URL + "/api/v1/cases")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list calculator.CaseListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(list.Cases) != 1 {
		t.Fatalf("expected 1 listed case, got %d", len(list.Cases))
	}
	if list.Cases[0].ID != first || list.Cases[0].Name != "radius=8" || list.Cases[0].Status != CaseDone {
		t.Fatalf("unexpected listing entry %+v", list.Cases[0])
	}

	resp, err = http.Get(server.URL + "/api/v1/cases?limit=bogus")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed limit, got %d", resp.StatusCode)
	}
}

// The remote adapter and the daemon speak the same wire format; drive one
// case end to end through the adapter.
func TestRemoteAdapterAgainstDaemon(t *testing.T) {
	server := newTestDaemon(t)

	// The launch command receives the staged case directory as its final
	// argument; the trailing "true" absorbs it.
	adapter := calculator.NewRemote(server.URL, "daemon", "Moret", `echo "KEFF = 0.99231" ; true`)
	if err := adapter.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	dir := t.TempDir()
	h, err := adapter.Submit(context.Background(), calculator.Submission{Name: "radius=8", Dir: dir})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := adapter.Poll(context.Background(), h)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if status.State == calculator.StateDone {
			if status.Output != "KEFF = 0.99231\n" {
				t.Fatalf("unexpected output %q", status.Output)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("case never finished")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
