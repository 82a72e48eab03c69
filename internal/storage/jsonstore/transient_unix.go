//go:build !windows

package jsonstore

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isTransientWriteError(err error) bool {
	return errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EBUSY) ||
		errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.ETXTBSY)
}
