package naming

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestDirectiveStripping(t *testing.T) {
	cases := []struct {
		in        string
		want      string
		directive Directive
	}{
		{"-White-sunset.jpg", "/out/sunsetWB.jpg", DirectiveWhite},
		{"-Black-cave.PNG", "/out/caveWB.jpg", DirectiveBlack},
		{"-Average-field.tif", "/out/fieldWB.jpg", DirectiveAverage},
		{"-Lum-night.jpeg", "/out/nightWB.jpg", DirectiveLum},
		{"plain.jpg", "/out/plainWB.jpg", DirectiveNone},
		{"-white-lower.jpg", "/out/-white-lowerWB.jpg", DirectiveNone},
		{"x-White-mid.jpg", "/out/x-White-midWB.jpg", DirectiveNone},
		{"-White--Black-double.jpg", "/out/-Black-doubleWB.jpg", DirectiveWhite},
	}
	for _, tc := range cases {
		got := OutputPathFor("/out", filepath.Join("/in", tc.in), "WB")
		if got != filepath.FromSlash(tc.want) {
			t.Fatalf("%s: got %q want %q", tc.in, got, tc.want)
		}
		if d := DetectDirective(tc.in); d != tc.directive {
			t.Fatalf("%s: directive got %q want %q", tc.in, d, tc.directive)
		}
	}
}

func TestOutputPathForIsPure(t *testing.T) {
	a := OutputPathFor("/out", "/in/photo.tiff", "_bf")
	b := OutputPathFor("/out", "/in/photo.tiff", "_bf")
	if a != b || a != filepath.FromSlash("/out/photo_bf.jpg") {
		t.Fatalf("unexpected output paths %q %q", a, b)
	}
}

func mkdirs(t *testing.T, parent string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(parent, n), 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestNextNumberedFolderReusesFirstGap(t *testing.T) {
	parent := t.TempDir()
	path, n, err := NextNumberedFolder(parent, "Base")
	if err != nil || n != 1 || path != filepath.Join(parent, "Base") {
		t.Fatalf("empty parent: path=%q n=%d err=%v", path, n, err)
	}

	mkdirs(t, parent, "Base", "Base 2", "Base 4")
	path, n, err = NextNumberedFolder(parent, "Base")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || path != filepath.Join(parent, "Base 3") {
		t.Fatalf("expected Base 3, got %q (%d)", path, n)
	}
}

func TestPurgeNumberedIsIndexDriven(t *testing.T) {
	parent := t.TempDir()
	mkdirs(t, parent, "Base/deep/deeper", "Base 2", "Base 4", "Other")
	if err := os.WriteFile(filepath.Join(parent, "Base", "deep", "deeper", "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := PurgeNumbered(parent, "Base", 4)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if res.Deleted != 2 || res.Missing != 1 || res.Failed != 0 || res.ItemFailures != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, keep := range []string{"Base 4", "Other"} {
		if _, err := os.Stat(filepath.Join(parent, keep)); err != nil {
			t.Fatalf("%s must survive: %v", keep, err)
		}
	}
	if _, err := os.Stat(filepath.Join(parent, "Base")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Base should be gone: %v", err)
	}
}

func TestPurgeNumberedReportsPartialFailure(t *testing.T) {
	parent := t.TempDir()
	mkdirs(t, parent, "Base", "Base 2")
	stuck := filepath.Join(parent, "Base", "locked.jpg")
	if err := os.WriteFile(stuck, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "Base", "free.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removePath = func(p string) error {
		if p == stuck {
			return fs.ErrPermission
		}
		return os.Remove(p)
	}
	t.Cleanup(func() { removePath = os.Remove })

	res, err := PurgeNumbered(parent, "Base", 3)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if res.Deleted != 1 || res.Failed != 1 {
		t.Fatalf("expected one deleted and one failed folder: %+v", res)
	}
	// the stuck file plus its parent directory
	if res.ItemFailures != 2 || len(res.Failures) != 2 {
		t.Fatalf("expected 2 item failures: %+v", res)
	}
	if _, err := os.Stat(filepath.Join(parent, "Base", "free.jpg")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("deletable sibling should be removed")
	}
}

func TestPurgeNumberedBelowTwoIsNoop(t *testing.T) {
	parent := t.TempDir()
	mkdirs(t, parent, "Base")
	res, err := PurgeNumbered(parent, "Base", 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Deleted != 0 || res.Missing != 0 || res.Failed != 0 || len(res.Failures) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
