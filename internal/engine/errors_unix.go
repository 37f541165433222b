//go:build linux || darwin || freebsd || netbsd || openbsd

package engine

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/unix"
)

func resourceExhausted(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT) || errors.Is(err, unix.ENOMEM)
}

func destinationUnusable(err error) bool {
	return errors.Is(err, unix.EROFS) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
