package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const runLockFileName = "run.lock"

// RunLock is an exclusive advisory lock that keeps two processes from
// driving the same run-state record.
type RunLock struct {
	lock *flock.Flock
}

func AcquireRunLock(stateDir string) (RunLock, error) {
	target := strings.TrimSpace(stateDir)
	if target == "" {
		return RunLock{}, fmt.Errorf("state directory is required")
	}
	if err := Mkdir(target); err != nil {
		return RunLock{}, err
	}

	lockPath := filepath.Join(target, runLockFileName)
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return RunLock{}, fmt.Errorf("acquire run lock for %s: %w", target, err)
	}
	if !ok {
		owner := readLockOwner(lockPath)
		if owner != "" {
			return RunLock{}, fmt.Errorf("another batch is already running (%s)", owner)
		}
		return RunLock{}, fmt.Errorf("another batch is already running (lock %s)", lockPath)
	}

	// The owner line is informational; the flock itself is the guard.
	owner := fmt.Sprintf("pid=%d created_at=%s host=%s", os.Getpid(), time.Now().UTC().Format(time.RFC3339), hostnameOrUnknown())
	_ = os.WriteFile(lockPath, []byte(owner+"\n"), 0o644)

	return RunLock{lock: fl}, nil
}

// RunLockHeld reports whether another process holds the run lock. It only
// tries and releases the lock; the owner line is left as it was.
func RunLockHeld(stateDir string) (bool, error) {
	lockPath := filepath.Join(strings.TrimSpace(stateDir), runLockFileName)
	if _, err := os.Stat(lockPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("check run lock %s: %w", lockPath, err)
	}
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("check run lock %s: %w", lockPath, err)
	}
	if !ok {
		return true, nil
	}
	_ = fl.Unlock()
	return false, nil
}

func (l RunLock) Release() error {
	if l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release run lock %s: %w", l.lock.Path(), err)
	}
	return nil
}

func readLockOwner(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}

// LockOwnerPID returns the pid recorded by the current lock holder, or 0.
func LockOwnerPID(stateDir string) int {
	return PIDFromOwner(readLockOwner(filepath.Join(strings.TrimSpace(stateDir), runLockFileName)))
}

// PIDFromOwner extracts the pid recorded in a lock owner line.
func PIDFromOwner(owner string) int {
	for _, field := range strings.Fields(owner) {
		if v, ok := strings.CutPrefix(field, "pid="); ok {
			n, err := strconv.Atoi(v)
			if err == nil {
				return n
			}
		}
	}
	return 0
}
