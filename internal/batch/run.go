// Package batch drives a sorted file list through the framing pipeline,
// persisting run-state before and after every file so an interrupted run can
// resume at the file that was in flight.
package batch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"borderforge/internal/encoder"
	"borderforge/internal/engine"
	"borderforge/internal/model"
	"borderforge/internal/naming"
	"borderforge/internal/runstore"
	"borderforge/internal/scan"
)

type AbortReason string

const (
	AbortScratchExhausted AbortReason = "scratch_exhausted"
	AbortProcessingFailed AbortReason = "processing_failed"
	AbortFatal            AbortReason = "fatal"
)

// AbortError ends a run early. The run-state record is left in place so the
// next launch offers to resume at Index.
type AbortError struct {
	Reason   AbortReason
	Index    int
	File     string
	Attempts int
	Err      error
}

func (e *AbortError) Error() string {
	switch e.Reason {
	case AbortScratchExhausted:
		return fmt.Sprintf("out of disk or memory on %s after %d attempts; free space or restart, then resume: %v", e.File, e.Attempts, e.Err)
	case AbortFatal:
		return fmt.Sprintf("cannot continue after %s: %v", e.File, e.Err)
	default:
		return fmt.Sprintf("processing %s failed: %v", e.File, e.Err)
	}
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// StateStore is the durable run-state record.
type StateStore interface {
	Save(model.RunState) error
	Clear()
}

// Result summarizes one run. Skipped counts every file this run did not
// write, existing outputs and failures alike; Failed is the failure subset.
type Result struct {
	RunID          string `json:"run_id"`
	Completed      bool   `json:"completed"`
	Processed      int    `json:"processed"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	Total          int    `json:"total"`
	StartIndex     int    `json:"start_index"`
	OutputDir      string `json:"output_dir"`
	ReturnToConfig bool   `json:"return_to_config"`
}

type Runner struct {
	Engine    Engine
	Store     StateStore
	Logger    *slog.Logger
	Reclaimer Reclaimer
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)
	// Progress draws a live status line on Out.
	Progress bool
	Out      io.Writer
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Runner) reclaimer() Reclaimer {
	if r.Reclaimer == nil {
		return noopReclaimer{}
	}
	return r.Reclaimer
}

func (r *Runner) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

// Run processes tasks[startIndex:] into outputDir. forceRedo names one index
// that is rebuilt even when its output exists; pass -1 for none.
func (r *Runner) Run(tasks []model.FileTask, startIndex int, outputDir string, opts model.BatchOptions, forceRedo int) (Result, error) {
	if r.Engine == nil || r.Store == nil {
		return Result{}, errors.New("batch runner needs an engine and a state store")
	}
	if err := opts.Validate(); err != nil {
		return Result{ReturnToConfig: true}, err
	}
	total := len(tasks)
	if total == 0 {
		return Result{ReturnToConfig: true}, scan.ErrEmptyInput
	}
	if err := runstore.Mkdir(outputDir); err != nil {
		return Result{ReturnToConfig: true}, err
	}

	idx := max(0, min(startIndex, total-1))
	now := time.Now().UTC()
	st := model.RunState{
		RunID:          uuid.NewString(),
		StartedAt:      now,
		Heartbeat:      now,
		InputPath:      filepath.Dir(tasks[0].Path),
		OutputPath:     outputDir,
		Total:          total,
		LastStartedIdx: idx,
		LastDoneIdx:    idx - 1,
	}
	if err := model.TransitionRunPhase(&st, model.PhaseRunning); err != nil {
		return Result{}, err
	}
	if err := r.Store.Save(st); err != nil {
		return Result{}, fmt.Errorf("write run-state: %w", err)
	}

	log := r.logger().With("run_id", st.RunID)
	log.Info("batch started",
		"input", st.InputPath,
		"output", outputDir,
		"total", total,
		"start_index", idx,
		"force_redo", forceRedo,
	)

	res := Result{RunID: st.RunID, Total: total, StartIndex: idx, OutputDir: outputDir}
	progress := newLiveProgress(r.Progress, r.out(), total, idx)
	progress.Start()

	for idx < total {
		inChunk := 0
		for idx < total && inChunk < opts.ChunkSize {
			task := tasks[idx]
			outPath := naming.OutputPathFor(outputDir, task.Path, opts.Suffix)

			r.markStarted(log, &st, idx, task.Name)
			progress.Update(idx, "processing", task.Name)

			if opts.SkipExisting && idx != forceRedo && fileExists(outPath) {
				res.Skipped++
				log.Info("skipped existing output", "index", idx, "file", task.Name, "outcome", model.OutcomeSkipped)
				r.markDone(log, &st, idx, task.Name)
				r.reclaimer().Light()
			} else {
				enc, err := r.processWithRetry(log, task, outPath, opts)
				if err == nil {
					res.Processed++
					log.Info("file done",
						"index", idx,
						"file", task.Name,
						"bytes", enc.FinalSize,
						"quality", enc.FinalQuality,
						"trials", len(enc.Trials),
						"in_window", enc.InWindow,
						"outcome", model.OutcomeProcessed,
					)
					r.markDone(log, &st, idx, task.Name)
				} else {
					res.Skipped++
					res.Failed++
					if abort := abortFor(err, task, opts.SilentMode); abort != nil {
						res.ReturnToConfig = true
						progress.Stop(fmt.Sprintf("stopped at [%d/%d] %s", idx+1, total, task.Name))
						log.Error("batch aborted", "index", idx, "file", task.Name, "reason", string(abort.Reason), "error", err.Error())
						return res, abort
					}
					log.Warn("file skipped after failure", "index", idx, "file", task.Name, "outcome", model.OutcomeFailed)
				}
			}

			progress.Counts(res.Processed, res.Skipped, res.Failed)
			idx++
			inChunk++
			if forceRedo == idx-1 {
				forceRedo = -1
			}
		}

		r.reclaimer().Deep()
		log.Debug("chunk complete", "next_index", idx, "files", inChunk)
		r.sleep(opts.ChunkCooldown)
	}

	st.EndedAt = time.Now().UTC()
	st.Heartbeat = st.EndedAt
	if err := model.TransitionRunPhase(&st, model.PhaseCleanExit); err != nil {
		return res, err
	}
	r.persist(log, st)
	r.Store.Clear()

	res.Completed = true
	progress.Stop(fmt.Sprintf("done: %d processed, %d skipped, %d failed", res.Processed, res.Skipped, res.Failed))
	log.Info("batch completed", "processed", res.Processed, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

// processWithRetry runs the pipeline, retrying only resource exhaustion.
func (r *Runner) processWithRetry(log *slog.Logger, task model.FileTask, outPath string, opts model.BatchOptions) (encoder.Result, error) {
	attempts := 0
	for {
		attempts++
		enc, err := ProcessFile(r.Engine, task, outPath, opts)
		r.reclaimer().Light()
		if err == nil {
			return enc, nil
		}
		log.Error("file failed",
			"index", task.Index,
			"file", task.Name,
			"attempt", attempts,
			"kind", engine.KindOf(err).String(),
			"error", err.Error(),
		)
		if !engine.IsResourceExhausted(err) {
			return enc, err
		}
		if attempts > opts.ScratchMaxRetries {
			return enc, &AbortError{Reason: AbortScratchExhausted, Index: task.Index, File: task.Name, Attempts: attempts, Err: err}
		}
		log.Warn("resource exhausted, retrying",
			"file", task.Name,
			"retry", attempts,
			"max_retries", opts.ScratchMaxRetries,
			"cooldown", opts.ScratchRetryCooldown.String(),
		)
		r.reclaimer().Deep()
		r.sleep(opts.ScratchRetryCooldown)
	}
}

// abortFor decides whether a per-file failure ends the run.
func abortFor(err error, task model.FileTask, silent bool) *AbortError {
	var abort *AbortError
	if errors.As(err, &abort) {
		return abort
	}
	if engine.KindOf(err) == engine.KindFatal {
		return &AbortError{Reason: AbortFatal, Index: task.Index, File: task.Name, Attempts: 1, Err: err}
	}
	if !silent {
		return &AbortError{Reason: AbortProcessingFailed, Index: task.Index, File: task.Name, Attempts: 1, Err: err}
	}
	return nil
}

func (r *Runner) markStarted(log *slog.Logger, st *model.RunState, idx int, name string) {
	st.LastStartedIdx = idx
	st.LastStartedName = name
	st.Heartbeat = time.Now().UTC()
	r.persist(log, *st)
}

func (r *Runner) markDone(log *slog.Logger, st *model.RunState, idx int, name string) {
	st.LastDoneIdx = idx
	st.LastDoneName = name
	st.Heartbeat = time.Now().UTC()
	r.persist(log, *st)
}

// persist writes the record. A failed write is logged and the run goes on;
// the next successful write restores the watermark.
func (r *Runner) persist(log *slog.Logger, st model.RunState) {
	if err := r.Store.Save(st); err != nil {
		log.Warn("run-state write failed", "error", err.Error())
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
