package batch

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"borderforge/internal/encoder"
	"borderforge/internal/model"
	"borderforge/internal/naming"
	"borderforge/internal/runstore"
	"borderforge/internal/scan"
)

const dryRunFolder = ".borderforge_test"

type DryRunOptions struct {
	// Index selects the file; a negative value picks one at random.
	Index int
	// Keep leaves the exported preview on disk.
	Keep bool
	// TempDir defaults to os.TempDir().
	TempDir string
	// Pick returns a random index in [0, n); defaults to math/rand.
	Pick func(n int) int
}

type DryRunResult struct {
	Index       int            `json:"index"`
	Name        string         `json:"name"`
	InputBytes  int64          `json:"input_bytes"`
	OutputBytes int64          `json:"output_bytes"`
	OutputName  string         `json:"output_name"`
	PreviewPath string         `json:"preview_path"`
	Kept        bool           `json:"kept"`
	Encoding    encoder.Result `json:"-"`
}

func (r DryRunResult) Summary() string {
	return fmt.Sprintf("[%d] %s: %s -> %s as %s (quality %d, %d trial(s))",
		r.Index, r.Name,
		humanize.IBytes(uint64(r.InputBytes)), humanize.IBytes(uint64(r.OutputBytes)),
		r.OutputName, r.Encoding.FinalQuality, len(r.Encoding.Trials))
}

// DryRun exports one file to a hidden temp folder so the settings can be
// previewed. It never reads or writes the run-state record.
func DryRun(eng Engine, tasks []model.FileTask, opts model.BatchOptions, dro DryRunOptions) (DryRunResult, error) {
	if err := opts.Validate(); err != nil {
		return DryRunResult{}, err
	}
	if len(tasks) == 0 {
		return DryRunResult{}, scan.ErrEmptyInput
	}

	idx := dro.Index
	if idx < 0 {
		pick := dro.Pick
		if pick == nil {
			pick = rand.IntN
		}
		idx = pick(len(tasks))
	}
	if idx >= len(tasks) {
		return DryRunResult{}, fmt.Errorf("dry-run index %d out of range (0-%d)", idx, len(tasks)-1)
	}
	task := tasks[idx]

	base := dro.TempDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, dryRunFolder)
	if err := runstore.Mkdir(dir); err != nil {
		return DryRunResult{}, err
	}
	preview := filepath.Join(dir, fmt.Sprintf("bf_test_%s_%d.jpg", uuid.NewString(), idx))

	res := DryRunResult{
		Index:       idx,
		Name:        task.Name,
		OutputName:  filepath.Base(naming.OutputPathFor(dir, task.Path, opts.Suffix)),
		PreviewPath: preview,
	}
	if info, err := os.Stat(task.Path); err == nil {
		res.InputBytes = info.Size()
	}

	enc, err := ProcessFile(eng, task, preview, opts)
	if err != nil {
		_ = os.Remove(preview)
		return res, fmt.Errorf("dry run on %s: %w", task.Name, err)
	}
	res.Encoding = enc
	res.OutputBytes = enc.FinalSize

	if dro.Keep {
		res.Kept = true
		return res, nil
	}
	_ = os.Remove(preview)
	return res, nil
}
