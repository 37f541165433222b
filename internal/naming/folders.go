package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

const maxFolderIndex = 100000

// FolderName returns "Base" for n <= 1 and "Base n" otherwise.
func FolderName(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + " " + strconv.Itoa(n)
}

// NextNumberedFolder returns the first candidate in Base, Base 2, Base 3, ...
// that does not exist yet, with its index. Earlier gaps are reused.
func NextNumberedFolder(parent, base string) (string, int, error) {
	for n := 1; n <= maxFolderIndex; n++ {
		candidate := filepath.Join(parent, FolderName(base, n))
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, n, nil
		}
		if err != nil {
			return "", 0, fmt.Errorf("probe output folder %s: %w", candidate, err)
		}
	}
	return "", 0, fmt.Errorf("no free output folder name under %s after %d attempts", parent, maxFolderIndex)
}

// PurgeFailure is one item that could not be removed.
type PurgeFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type PurgeResult struct {
	Deleted      int            `json:"deleted"`
	Missing      int            `json:"missing"`
	Failed       int            `json:"failed"`
	ItemFailures int            `json:"item_failures"`
	Failures     []PurgeFailure `json:"failures,omitempty"`
}

var removePath = os.Remove

// PurgeNumbered deletes Base and Base 2 .. Base (nextIndex-1) under parent.
// Only those exact names are touched; nothing is discovered by scanning.
func PurgeNumbered(parent, base string, nextIndex int) (PurgeResult, error) {
	var res PurgeResult
	info, err := os.Stat(parent)
	if err != nil {
		return res, fmt.Errorf("purge parent %s: %w", parent, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("purge parent %s is not a directory", parent)
	}

	maxN := nextIndex - 1
	for n := 1; n <= maxN; n++ {
		target := filepath.Join(parent, FolderName(base, n))
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			res.Missing++
			continue
		}
		failures := removeTree(target)
		res.ItemFailures += len(failures)
		res.Failures = append(res.Failures, failures...)
		if _, err := os.Lstat(target); errors.Is(err, fs.ErrNotExist) {
			res.Deleted++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

// removeTree deletes root depth-first without recursion and keeps going past
// failures so every undeletable item is reported.
func removeTree(root string) []PurgeFailure {
	var failures []PurgeFailure
	fail := func(path string, err error) {
		failures = append(failures, PurgeFailure{Path: path, Error: err.Error()})
	}

	if info, err := os.Lstat(root); err == nil && !info.IsDir() {
		if err := removePath(root); err != nil {
			fail(root, err)
		}
		return failures
	}

	pending := []string{root}
	var visited []string
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		visited = append(visited, dir)

		entries, err := os.ReadDir(dir)
		if err != nil {
			fail(dir, err)
			continue
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			if e.IsDir() {
				pending = append(pending, p)
				continue
			}
			if err := removePath(p); err != nil {
				fail(p, err)
			}
		}
	}
	// children were visited after their parents
	for i := len(visited) - 1; i >= 0; i-- {
		if err := removePath(visited[i]); err != nil {
			fail(visited[i], err)
		}
	}
	return failures
}
