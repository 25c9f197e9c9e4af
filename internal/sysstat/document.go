package sysstat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// timestampKey is the DataPoint member holding the sample time.
const timestampKey = "timestamp"

// Document is the root object emitted by sadf -j.
type Document struct {
	Sysstat Sysstat `json:"sysstat"`
}

// Sysstat holds the format version and the per-host records.
type Sysstat struct {
	Version string `json:"sysdata-version"`
	Hosts   []Host `json:"hosts"`
}

// Host is one host record. Only the first host of a document is used.
type Host struct {
	Nodename    string      `json:"nodename"`
	Sysname     string      `json:"sysname,omitempty"`
	Release     string      `json:"release,omitempty"`
	Machine     string      `json:"machine,omitempty"`
	CPUs        int         `json:"number-of-cpus,omitempty"`
	FileDate    string      `json:"file-date"`
	FileUTCTime string      `json:"file-utc-time,omitempty"`
	Timezone    string      `json:"timezone,omitempty"`
	Statistics  []DataPoint `json:"statistics"`
}

// Timestamp is the local date and time of a sample, as printed by sadf.
type Timestamp struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	UTC      int    `json:"utc"`
	Interval int    `json:"interval"`
}

// DataPoint is one timestamped sample holding every category's content.
// Category content is kept as raw JSON and decoded on demand by the shape
// a metric path asks for.
type DataPoint struct {
	Timestamp  Timestamp
	Categories map[string]json.RawMessage
}

// UnmarshalJSON splits the timestamp from the category members.
func (dp *DataPoint) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	if raw, ok := members[timestampKey]; ok {
		if err := json.Unmarshal(raw, &dp.Timestamp); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		delete(members, timestampKey)
	}
	dp.Categories = members
	return nil
}

// Clone returns a deep copy of the sample.
func (dp DataPoint) Clone() DataPoint {
	out := DataPoint{
		Timestamp:  dp.Timestamp,
		Categories: make(map[string]json.RawMessage, len(dp.Categories)),
	}
	for k, v := range dp.Categories {
		out.Categories[k] = bytes.Clone(v)
	}
	return out
}

func cloneDataPoints(dps []DataPoint) []DataPoint {
	out := make([]DataPoint, len(dps))
	for i, dp := range dps {
		out[i] = dp.Clone()
	}
	return out
}

// Category returns the raw content of a category.
func (dp DataPoint) Category(name string) (json.RawMessage, bool) {
	raw, ok := dp.Categories[name]
	return raw, ok
}

// CategoryNames returns the category names present in the sample, sorted.
func (dp DataPoint) CategoryNames() []string {
	names := make([]string, 0, len(dp.Categories))
	for k := range dp.Categories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
