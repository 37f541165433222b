package batch

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"borderforge/internal/engine"
	"borderforge/internal/model"
	"borderforge/internal/naming"
)

func exhausted() error {
	return &engine.Error{Kind: engine.KindResourceExhausted, Op: "save", Err: syscall.ENOSPC}
}

func TestRunChunksWithDeepCleanupAndCooldown(t *testing.T) {
	h := newHarness(t, 7)
	opts := testOptions()
	opts.ChunkSize = 3
	opts.ChunkCooldown = 10 * time.Millisecond

	res, err := h.runner.Run(h.tasks, 0, h.out, opts, -1)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 7, res.Processed)
	assert.Equal(t, []int{2, 5, 6}, h.reclaim.deep)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond}, h.sleeps)
	assert.Equal(t, 7, h.reclaim.light)
}

func TestRunCleanCompletionClearsRecord(t *testing.T) {
	h := newHarness(t, 2)
	res, err := h.runner.Run(h.tasks, 0, h.out, testOptions(), -1)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.True(t, h.store.cleared)

	last, _ := h.store.last()
	assert.True(t, last.CleanExit)
	assert.False(t, last.Running)
	assert.Equal(t, 1, last.LastDoneIdx)
	assert.NotEmpty(t, last.RunID)
	assert.False(t, last.EndedAt.IsZero())
}

func TestRunResumeRedoesForcedIndexOnly(t *testing.T) {
	h := newHarness(t, 5)
	opts := testOptions()
	require.NoError(t, os.MkdirAll(h.out, 0o755))
	for _, task := range h.tasks {
		require.NoError(t, os.WriteFile(naming.OutputPathFor(h.out, task.Path, opts.Suffix), []byte("old"), 0o644))
	}

	res, err := h.runner.Run(h.tasks, 2, h.out, opts, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.jpg"}, h.engine.opened)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []int{2, 3, 4}, h.store.startedIndexes())
}

func TestRunResumedFirstRecordKeepsWatermark(t *testing.T) {
	h := newHarness(t, 5)

	_, err := h.runner.Run(h.tasks, 3, h.out, testOptions(), 3)
	require.NoError(t, err)
	require.NotEmpty(t, h.store.saves)
	first := h.store.saves[0]
	assert.Equal(t, 3, first.LastStartedIdx)
	assert.Equal(t, 2, first.LastDoneIdx)
	assert.Empty(t, first.LastStartedName)

	prevStarted, prevDone := -1, -1
	for _, st := range h.store.saves {
		assert.GreaterOrEqual(t, st.LastStartedIdx, prevStarted)
		assert.GreaterOrEqual(t, st.LastDoneIdx, prevDone)
		prevStarted, prevDone = st.LastStartedIdx, st.LastDoneIdx
	}
}

func TestRunFreshFirstRecordStartsAtZero(t *testing.T) {
	h := newHarness(t, 2)

	_, err := h.runner.Run(h.tasks, 0, h.out, testOptions(), -1)
	require.NoError(t, err)
	require.NotEmpty(t, h.store.saves)
	assert.Equal(t, 0, h.store.saves[0].LastStartedIdx)
	assert.Equal(t, -1, h.store.saves[0].LastDoneIdx)
}

func TestRunSkipExistingWithoutForcedRedo(t *testing.T) {
	h := newHarness(t, 3)
	opts := testOptions()
	require.NoError(t, os.MkdirAll(h.out, 0o755))
	require.NoError(t, os.WriteFile(naming.OutputPathFor(h.out, h.tasks[1].Path, opts.Suffix), []byte("old"), 0o644))

	res, err := h.runner.Run(h.tasks, 0, h.out, opts, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "c.jpg"}, h.engine.opened)
	assert.Equal(t, 1, res.Skipped)

	opts.SkipExisting = false
	h.engine.opened = nil
	res, err = h.runner.Run(h.tasks, 0, h.out, opts, -1)
	require.NoError(t, err)
	assert.Len(t, h.engine.opened, 3)
	assert.Zero(t, res.Skipped)
}

func TestRunSilentModeContinuesPastFailures(t *testing.T) {
	h := newHarness(t, 3)
	h.engine.fail["b.jpg"] = []error{errors.New("corrupt file")}

	res, err := h.runner.Run(h.tasks, 0, h.out, testOptions(), -1)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, h.engine.opened, 3)
}

func TestRunNonSilentFailureAbortsAndPreservesState(t *testing.T) {
	h := newHarness(t, 3)
	opts := testOptions()
	opts.SilentMode = false
	h.engine.fail["b.jpg"] = []error{errors.New("corrupt file")}

	res, err := h.runner.Run(h.tasks, 0, h.out, opts, -1)
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortProcessingFailed, abort.Reason)
	assert.Equal(t, 1, abort.Index)
	assert.False(t, res.Completed)
	assert.True(t, res.ReturnToConfig)
	assert.False(t, h.store.cleared)

	last, _ := h.store.last()
	assert.True(t, last.Running)
	assert.Equal(t, 1, last.LastStartedIdx)
	assert.Equal(t, 0, last.LastDoneIdx)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, h.engine.opened)
}

func TestRunFatalAbortsEvenInSilentMode(t *testing.T) {
	h := newHarness(t, 3)
	h.engine.fail["a.jpg"] = []error{&engine.Error{Kind: engine.KindFatal, Op: "save", Err: os.ErrPermission}}

	_, err := h.runner.Run(h.tasks, 0, h.out, testOptions(), -1)
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortFatal, abort.Reason)
	assert.False(t, h.store.cleared)
}

func TestRunRetriesResourceExhaustion(t *testing.T) {
	h := newHarness(t, 2)
	opts := testOptions()
	opts.ScratchMaxRetries = 2
	opts.ScratchRetryCooldown = 5 * time.Second
	h.engine.fail["a.jpg"] = []error{exhausted(), exhausted()}

	res, err := h.runner.Run(h.tasks, 0, h.out, opts, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, []string{"a.jpg", "a.jpg", "a.jpg", "b.jpg"}, h.engine.opened)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, h.sleeps)
	// two retry cleanups on file 0 plus the end-of-list cleanup
	assert.Equal(t, []int{0, 0, 1}, h.reclaim.deep)
}

func TestRunAbortsWhenRetriesAreExhausted(t *testing.T) {
	h := newHarness(t, 2)
	opts := testOptions()
	opts.ScratchMaxRetries = 2
	h.engine.fail["a.jpg"] = []error{exhausted(), exhausted(), exhausted()}

	res, err := h.runner.Run(h.tasks, 0, h.out, opts, -1)
	var abort *AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, AbortScratchExhausted, abort.Reason)
	assert.Equal(t, 3, abort.Attempts)
	assert.True(t, engine.IsResourceExhausted(err))
	assert.True(t, res.ReturnToConfig)
	assert.False(t, h.store.cleared)
	assert.Len(t, h.engine.opened, 3)
}

func TestRunClampsStartIndex(t *testing.T) {
	h := newHarness(t, 3)
	res, err := h.runner.Run(h.tasks, 9, h.out, testOptions(), -1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.StartIndex)
	assert.Equal(t, []string{"c.jpg"}, h.engine.opened)
}

func TestRunRejectsInvalidOptionsWithoutTouchingState(t *testing.T) {
	h := newHarness(t, 2)
	opts := testOptions()
	opts.ChunkSize = 0

	res, err := h.runner.Run(h.tasks, 0, h.out, opts, -1)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.True(t, res.ReturnToConfig)
	assert.Empty(t, h.store.saves)
}
