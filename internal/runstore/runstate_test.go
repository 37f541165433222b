package runstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"borderforge/internal/model"
)

func TestStoreLoadMissingReportsNotFound(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), DefaultRunStateName))
	if _, found := store.Load(); found {
		t.Fatalf("expected no record")
	}
	if store.Exists() {
		t.Fatalf("expected Exists to be false")
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), DefaultRunStateName))
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := model.RunState{
		RunID:           "run-1",
		Running:         true,
		StartedAt:       started,
		Heartbeat:       started.Add(time.Minute),
		InputPath:       "/in",
		OutputPath:      "/in/With Borders",
		Total:           7,
		LastStartedIdx:  3,
		LastStartedName: "d.jpg",
		LastDoneIdx:     2,
		LastDoneName:    "c.jpg",
	}
	if err := store.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, found := store.Load()
	if !found {
		t.Fatalf("expected record")
	}
	if out.RunID != in.RunID || !out.Running || out.CleanExit {
		t.Fatalf("flags mismatch: %+v", out)
	}
	if !out.StartedAt.Equal(in.StartedAt) || !out.Heartbeat.Equal(in.Heartbeat) {
		t.Fatalf("timestamps mismatch: %+v", out)
	}
	if out.Total != 7 || out.LastStartedIdx != 3 || out.LastDoneIdx != 2 {
		t.Fatalf("indexes mismatch: %+v", out)
	}
	if out.LastStartedName != "d.jpg" || out.LastDoneName != "c.jpg" {
		t.Fatalf("names mismatch: %+v", out)
	}
	if !out.HasStarted || out.Fields == 0 {
		t.Fatalf("expected usable fields: %+v", out)
	}
}

func TestStoreLoadGarbageHasNoUsableFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultRunStateName)
	if err := os.WriteFile(path, []byte("# only a comment\n\x00\x01 garbage without separator\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(path)
	st, found := store.Load()
	if !found {
		t.Fatalf("expected record to be reported")
	}
	if st.Fields != 0 || st.HasStarted {
		t.Fatalf("expected no usable fields: %+v", st)
	}
	if st.LastStartedIdx != -1 {
		t.Fatalf("unknown index must default to -1, got %d", st.LastStartedIdx)
	}
}

func TestStoreLoadNegativeIndexIsNotStarted(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultRunStateName)
	if err := os.WriteFile(path, []byte("running=true\nlastStartedIdx=-1\nlastStartedName=a.jpg\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, _ := NewStore(path).Load()
	if st.HasStarted || st.LastStartedIdx != -1 || st.LastStartedName != "a.jpg" {
		t.Fatalf("negative index must not count as started: %+v", st)
	}
}

func TestStoreLoadTruncatedIndexIsNotStarted(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultRunStateName)
	if err := os.WriteFile(path, []byte("running=true\ncleanExit=false\nlastStartedIdx=1x"), 0o644); err != nil {
		t.Fatal(err)
	}
	st, found := NewStore(path).Load()
	if !found {
		t.Fatalf("expected record")
	}
	if st.HasStarted || st.LastStartedIdx != -1 {
		t.Fatalf("partial index must not be trusted: %+v", st)
	}
	if st.Fields != 3 {
		t.Fatalf("expected 3 fields, got %d", st.Fields)
	}
}

func TestStoreClearIsBestEffort(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), DefaultRunStateName))
	store.Clear()
	if err := store.Save(model.RunState{Running: true}); err != nil {
		t.Fatal(err)
	}
	store.Clear()
	if store.Exists() {
		t.Fatalf("record should be removed")
	}
}
