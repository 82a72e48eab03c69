package jsonstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/natefinch/atomic"
)

const saveRetryMaxElapsed = 5 * time.Second

func newSaveBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = saveRetryMaxElapsed
	return bo
}

// write ensures the parent directory exists, then replaces the backing file.
// Transient filesystem errors are retried; anything else fails at once.
func (s *Store) write(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", s.path, err)
	}
	err := backoff.Retry(func() error {
		err := s.writeFn(s.path, data)
		if err != nil && isTransientWriteError(err) {
			s.log.Debug("retrying save", "path", s.path, "error", err)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(newSaveBackoff(), ctx))
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic writes via a temp file and rename so readers never see a
// partial document. New files get 0644.
func writeFileAtomic(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, 0o644)
}
