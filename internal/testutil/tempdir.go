package testutil

import (
	"fmt"
	"os"
)

// TempDir creates a scratch directory for an example run. The returned
// cleanup removes it and everything written under it, ignoring errors.
//
// Usage:
//
//	dir, cleanup, err := testutil.TempDir("folio-report")
//	if err != nil {
//		return err
//	}
//	defer cleanup()
func TempDir(name string) (string, func(), error) {
	dir, err := os.MkdirTemp("", name+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
