package cli

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
	}()
	defer r.Close()

	done := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		done <- b
	}()

	fn()

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return string(<-done)
}

// nonInteractive makes prompts behave as if stdin were a pipe.
func nonInteractive(t *testing.T) {
	t.Helper()
	old := stdinIsTTY
	stdinIsTTY = func() bool { return false }
	t.Cleanup(func() { stdinIsTTY = old })
}

// answering makes prompts read answer from a fake terminal.
func answering(t *testing.T, answer string) {
	t.Helper()
	oldTTY, oldIn := stdinIsTTY, stdin
	stdinIsTTY = func() bool { return true }
	stdin = strings.NewReader(answer + "\n")
	t.Cleanup(func() {
		stdinIsTTY = oldTTY
		stdin = oldIn
	})
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func photoFolder(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "photos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i, name := range names {
		writePNG(t, filepath.Join(dir, name), 64+i*8, 48, color.NRGBA{R: uint8(40 * i), G: 120, B: 200, A: 255})
	}
	return dir
}
