//go:build windows

package jsonstore

import (
	"errors"

	"golang.org/x/sys/windows"
)

// Antivirus scanners and indexers briefly hold the target open, which makes
// the rename fail with a sharing or lock violation.
func isTransientWriteError(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
