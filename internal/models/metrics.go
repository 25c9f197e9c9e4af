// Package models defines the time-series values handed from the accessor to
// exporters and chart rendering.
package models

// Point is a single sample of a metric.
type Point struct {
	// Unix is the sample time in seconds since the epoch.
	Unix int64 `json:"unix"`
	// Offset is the number of seconds since the first sample of the capture.
	Offset int64   `json:"offset"`
	Value  float64 `json:"value"`
}

// Series is one metric path resolved across every sample of a capture.
type Series struct {
	Path   string  `json:"path"`
	Host   string  `json:"host"`
	Points []Point `json:"points"`
}

// Values returns the sample values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Offsets returns the sample offsets in order.
func (s Series) Offsets() []int64 {
	out := make([]int64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Offset
	}
	return out
}
