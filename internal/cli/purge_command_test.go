package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"borderforge/internal/naming"
)

func TestPurgeDeletesNumberedFoldersOnly(t *testing.T) {
	home := t.TempDir()
	parent := t.TempDir()
	for _, name := range []string{"With Borders", "With Borders 2", "Keep Me"} {
		dir := filepath.Join(parent, name)
		if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "nested", "x.jpg"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var runErr error
	out := captureStdout(t, func() {
		runErr = Run([]string{"purge", "--home", home, "--dir", parent, "--yes", "--json"})
	})
	if runErr != nil {
		t.Fatalf("purge: %v", runErr)
	}
	var payload struct {
		Result naming.PurgeResult `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if payload.Result.Deleted != 2 || payload.Result.Failed != 0 {
		t.Fatalf("unexpected purge result: %+v", payload.Result)
	}
	if _, err := os.Stat(filepath.Join(parent, "Keep Me", "nested", "x.jpg")); err != nil {
		t.Fatalf("unrelated folder must survive: %v", err)
	}
}

func TestPurgeDeclinedKeepsFolders(t *testing.T) {
	parent := t.TempDir()
	target := filepath.Join(parent, "With Borders")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	answering(t, "no")
	captureStdout(t, func() {
		if err := Run([]string{"purge", "--home", t.TempDir(), "--dir", parent}); err != nil {
			t.Errorf("purge: %v", err)
		}
	})
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("declined purge must keep folders: %v", err)
	}
}

func TestPurgeNothingToDo(t *testing.T) {
	out := captureStdout(t, func() {
		if err := Run([]string{"purge", "--home", t.TempDir(), "--dir", t.TempDir(), "--yes"}); err != nil {
			t.Errorf("purge: %v", err)
		}
	})
	if out == "" {
		t.Fatalf("expected a message")
	}
}
