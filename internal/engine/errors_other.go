//go:build !(linux || darwin || freebsd || netbsd || openbsd || windows)

package engine

import (
	"errors"
	"io/fs"
)

func resourceExhausted(error) bool {
	return false
}

func destinationUnusable(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
