package sysstat

import (
	"fmt"
	"strings"
)

// MetricPath addresses one metric across every DataPoint. It is one of
// Simple, Device or SubclassDevice and is built with ParseMetricPath.
type MetricPath interface {
	String() string
	collect(dp DataPoint, out []float64) ([]float64, int, error)
}

// Simple selects dp[Class][Metric], e.g. "memory/memused-percent".
type Simple struct {
	Class  string
	Metric string
}

// Device selects Metric from every entry of the dp[Class] device list whose
// identifier equals Device, e.g. "disk/sda/tps".
type Device struct {
	Class  string
	Device string
	Metric string
}

// SubclassDevice is Device with the device list one level deeper, under
// dp[Class][Subclass], e.g. "network/net-dev/eth0/rxkB".
type SubclassDevice struct {
	Class    string
	Subclass string
	Device   string
	Metric   string
}

func (p Simple) String() string { return p.Class + "/" + p.Metric }

func (p Device) String() string { return p.Class + "/" + p.Device + "/" + p.Metric }

func (p SubclassDevice) String() string {
	return p.Class + "/" + p.Subclass + "/" + p.Device + "/" + p.Metric
}

// ParseMetricPath splits a slash-delimited path of 2, 3 or 4 non-empty
// segments into its MetricPath shape.
func ParseMetricPath(path string) (MetricPath, error) {
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrUnsupportedPath, path)
		}
	}
	switch len(segs) {
	case 2:
		return Simple{Class: segs[0], Metric: segs[1]}, nil
	case 3:
		return Device{Class: segs[0], Device: segs[1], Metric: segs[2]}, nil
	case 4:
		return SubclassDevice{Class: segs[0], Subclass: segs[1], Device: segs[2], Metric: segs[3]}, nil
	default:
		return nil, fmt.Errorf("%w: %q has %d segments", ErrUnsupportedPath, path, len(segs))
	}
}
