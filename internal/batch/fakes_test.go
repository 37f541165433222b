package batch

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"borderforge/internal/model"
)

// fakeDoc records pipeline calls and writes a small file on Save.
type fakeDoc struct {
	w, h    int
	avg     color.NRGBA
	profile string
	calls   []string
	bg      color.Color
	ppi     int
	size    int64
	saveErr error
}

func (d *fakeDoc) NormalizeColor(string) error { d.calls = append(d.calls, "normalize"); return nil }
func (d *fakeDoc) ConvertColorProfile(target string) error {
	d.calls = append(d.calls, "convert")
	d.profile = target
	return nil
}
func (d *fakeDoc) ProfileName() string { return d.profile }
func (d *fakeDoc) Flatten() error      { d.calls = append(d.calls, "flatten"); return nil }
func (d *fakeDoc) Size() (int, int)    { return d.w, d.h }
func (d *fakeDoc) Resize(w, h int) error {
	d.calls = append(d.calls, "resize")
	d.w, d.h = w, h
	return nil
}
func (d *fakeDoc) ExpandCanvas(w, h int) error {
	d.calls = append(d.calls, "expand")
	d.w, d.h = w, h
	return nil
}
func (d *fakeDoc) FillBackground(c color.Color) error {
	d.calls = append(d.calls, "fill")
	d.bg = c
	return nil
}
func (d *fakeDoc) SetResolution(ppi int) error {
	d.calls = append(d.calls, "ppi")
	d.ppi = ppi
	return nil
}
func (d *fakeDoc) AverageColor() (color.NRGBA, error) { return d.avg, nil }
func (d *fakeDoc) Save(path string, _ int, _ bool) (int64, error) {
	d.calls = append(d.calls, "save")
	if d.saveErr != nil {
		return 0, d.saveErr
	}
	size := d.size
	if size == 0 {
		size = 1024
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		return 0, err
	}
	return size, nil
}
func (d *fakeDoc) Close() { d.calls = append(d.calls, "close") }

// fakeEngine hands out fakeDocs and fails per file name from a queue.
type fakeEngine struct {
	t       *testing.T
	store   *recordingStore
	opened  []string
	fail    map[string][]error
	docs    []*fakeDoc
	newDoc  func() *fakeDoc
	checkWB bool
}

func (e *fakeEngine) Open(path string) (Document, error) {
	name := filepath.Base(path)
	e.opened = append(e.opened, name)
	if e.checkWB {
		last, ok := e.store.last()
		require.True(e.t, ok, "run-state must be written before work starts")
		require.Equal(e.t, name, last.LastStartedName, "file must be marked started before it is opened")
	}
	if q := e.fail[name]; len(q) > 0 {
		err := q[0]
		e.fail[name] = q[1:]
		return nil, err
	}
	doc := &fakeDoc{w: 3000, h: 2000, avg: color.NRGBA{R: 200, G: 200, B: 200, A: 255}}
	if e.newDoc != nil {
		doc = e.newDoc()
	}
	e.docs = append(e.docs, doc)
	return doc, nil
}

type recordingStore struct {
	saves   []model.RunState
	cleared bool
}

func (s *recordingStore) Save(st model.RunState) error {
	s.saves = append(s.saves, st)
	return nil
}

func (s *recordingStore) Clear() {
	s.cleared = true
}

func (s *recordingStore) last() (model.RunState, bool) {
	if len(s.saves) == 0 {
		return model.RunState{}, false
	}
	return s.saves[len(s.saves)-1], true
}

func (s *recordingStore) startedIndexes() []int {
	var out []int
	prev := -1
	for _, st := range s.saves {
		if st.LastStartedIdx != prev && st.LastStartedIdx >= 0 {
			out = append(out, st.LastStartedIdx)
			prev = st.LastStartedIdx
		}
	}
	return out
}

// recordingReclaimer notes the last started index at every deep cleanup.
type recordingReclaimer struct {
	store *recordingStore
	light int
	deep  []int
}

func (r *recordingReclaimer) Light() { r.light++ }
func (r *recordingReclaimer) Deep() {
	last, _ := r.store.last()
	r.deep = append(r.deep, last.LastStartedIdx)
}

type harness struct {
	dir     string
	out     string
	tasks   []model.FileTask
	engine  *fakeEngine
	store   *recordingStore
	reclaim *recordingReclaimer
	sleeps  []time.Duration
	runner  *Runner
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	h := &harness{dir: t.TempDir()}
	h.out = filepath.Join(h.dir, "With Borders")
	for i := 0; i < n; i++ {
		p := filepath.Join(h.dir, string(rune('a'+i))+".jpg")
		require.NoError(t, os.WriteFile(p, []byte("src"), 0o644))
		h.tasks = append(h.tasks, model.NewFileTask(i, p))
	}
	h.store = &recordingStore{}
	h.engine = &fakeEngine{t: t, store: h.store, fail: map[string][]error{}, checkWB: true}
	h.reclaim = &recordingReclaimer{store: h.store}
	h.runner = &Runner{
		Engine:    h.engine,
		Store:     h.store,
		Reclaimer: h.reclaim,
		Sleep:     func(d time.Duration) { h.sleeps = append(h.sleeps, d) },
	}
	return h
}

func testOptions() model.BatchOptions {
	o := model.DefaultBatchOptions()
	o.IgnoreFileSizeLimits = true
	return o
}
