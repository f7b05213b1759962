package fzd

import "testing"

func TestCaseStoreCreateAndGet(t *testing.T) {
	store := NewCaseStore()

	rec, err := store.Create("abc", "radius=8", "Moret", "moret5.sh", "/tmp/abc")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Status != CaseQueued {
		t.Fatalf("expected new case queued, got %s", rec.Status)
	}
	if rec.CreatedAtUnixMs == 0 {
		t.Fatalf("expected creation timestamp")
	}

	got, ok := store.Get("abc")
	if !ok || got.Name != "radius=8" {
		t.Fatalf("expected stored case, got %v %v", got, ok)
	}
}

func TestCaseStoreRejectsDuplicate(t *testing.T) {
	store := NewCaseStore()
	if _, err := store.Create("abc", "a", "m", "cmd", "/tmp"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create("abc", "b", "m", "cmd", "/tmp"); err == nil {
		t.Fatalf("expected duplicate id to be rejected")
	}
}

func TestCaseStoreSetStatusTimestamps(t *testing.T) {
	store := NewCaseStore()
	store.Create("abc", "a", "m", "cmd", "/tmp")

	rec, err := store.SetStatus("abc", CaseRunning, 0, "")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if rec.StartedAtUnixMs == 0 {
		t.Fatalf("expected start timestamp on running")
	}

	rec, err = store.SetStatus("abc", CaseDone, 3, "")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if rec.EndedAtUnixMs == 0 {
		t.Fatalf("expected end timestamp on done")
	}
	if rec.ExitCode != 3 {
		t.Fatalf("expected exit code recorded, got %d", rec.ExitCode)
	}
}

func TestCaseStoreSetStatusUnknown(t *testing.T) {
	store := NewCaseStore()
	if _, err := store.SetStatus("missing", CaseDone, 0, ""); err == nil {
		t.Fatalf("expected error for unknown case")
	}
}

func TestCaseStoreListNewestFirstWithLimit(t *testing.T) {
	store := NewCaseStore()
	store.Create("a", "one", "m", "cmd", "/tmp/a")
	store.Create("b", "two", "m", "cmd", "/tmp/b")
	store.Create("c", "three", "m", "cmd", "/tmp/c")

	// Creation happens within the same millisecond here, so ordering falls
	// back to the id tiebreak; force distinct timestamps instead.
	store.cases["a"].CreatedAtUnixMs = 100
	store.cases["b"].CreatedAtUnixMs = 200
	store.cases["c"].CreatedAtUnixMs = 300

	all := store.List(0)
	if len(all) != 3 {
		t.Fatalf("expected 3 cases, got %d", len(all))
	}
	if all[0].ID != "c" || all[1].ID != "b" || all[2].ID != "a" {
		t.Fatalf("expected newest first, got %s %s %s", all[0].ID, all[1].ID, all[2].ID)
	}

	limited := store.List(2)
	if len(limited) != 2 || limited[0].ID != "c" || limited[1].ID != "b" {
		t.Fatalf("unexpected limited listing %v", limited)
	}
}
