// Package platform wraps the few host-specific queries the converter needs:
// the local host identity and an access check for input files.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// ErrNotReadable is returned when an input file cannot be read by the current user.
var ErrNotReadable = errors.New("file is not readable")

// LocalHostname returns the hostname of the machine running the converter.
func LocalHostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("query host info: %w", err)
	}
	return info.Hostname, nil
}

// IsForeignCapture reports whether a capture taken on nodename was recorded
// on a different machine than the local one. Lookup failures count as local.
func IsForeignCapture(ctx context.Context, nodename string) bool {
	local, err := LocalHostname(ctx)
	if err != nil || local == "" || nodename == "" {
		return false
	}
	return local != nodename
}
