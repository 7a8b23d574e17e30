//go:build !unix

package ledger

import (
	"fmt"
	"os"
)

// Non-unix platforms get the lock file but no exclusion.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	return f, nil
}

func releaseLock(f *os.File) error { return f.Close() }
