//go:build windows

package engine

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/windows"
)

func resourceExhausted(err error) bool {
	return errors.Is(err, windows.ERROR_DISK_FULL) ||
		errors.Is(err, windows.ERROR_HANDLE_DISK_FULL) ||
		errors.Is(err, windows.ERROR_NOT_ENOUGH_MEMORY) ||
		errors.Is(err, windows.ERROR_OUTOFMEMORY)
}

func destinationUnusable(err error) bool {
	return errors.Is(err, windows.ERROR_WRITE_PROTECT) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
