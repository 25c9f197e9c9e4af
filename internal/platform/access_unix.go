//go:build unix

package platform

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckReadable verifies that path is a regular file the current user may read.
func CheckReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory: %w", path, ErrNotReadable)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrNotReadable)
	}
	return nil
}
