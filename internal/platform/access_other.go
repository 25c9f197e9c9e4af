//go:build !unix

package platform

import (
	"fmt"
	"os"
)

// CheckReadable verifies that path is a regular file the current user may read.
// Without access(2) the file is opened and closed again.
func CheckReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory: %w", path, ErrNotReadable)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, ErrNotReadable)
	}
	return f.Close()
}
