// Package sysstat parses the JSON capture documents produced by sadf and
// extracts time series from them by metric path.
//
// A Converter starts Unparsed. Convert runs the collector and parses its
// output; after that the document never changes. Every read operation fails
// with ErrNoData until a document is held.
package sysstat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/Guliveer/sadfjson/internal/buffer"
	"github.com/Guliveer/sadfjson/internal/models"
)

// timestampLayout matches the date and time members of a sadf timestamp.
const timestampLayout = "2006-01-02 15:04:05"

// Runner runs the external collector for input and writes its JSON output to sink.
type Runner interface {
	Run(ctx context.Context, input string, interval int, sink io.Writer) error
}

// Converter owns one capture: the collector invocation that produces it, the
// parsed document, and the timestamp caches derived from it.
//
// The parsed document is immutable. UnixTimes and OffsetTimes are computed
// on first use and cached; Invalidate drops the caches. A Converter is not
// safe for concurrent use.
type Converter struct {
	input  string
	runner Runner
	spool  buffer.Options
	logger *zap.Logger

	raw  []byte
	doc  *Document
	host *Host

	unixTimes   []int64
	offsetTimes []int64
}

// NewConverter creates an Unparsed converter for the sysstat file at input.
func NewConverter(input string, runner Runner, spool buffer.Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		input:  input,
		runner: runner,
		spool:  spool,
		logger: logger.Named("sysstat"),
	}
}

// Parse builds a Parsed converter from a capture document that was already
// produced by sadf.
func Parse(data []byte, logger *zap.Logger) (*Converter, error) {
	c := NewConverter("", nil, buffer.Options{}, logger)
	if err := c.load(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Input returns the sysstat file the converter reads.
func (c *Converter) Input() string { return c.input }

// Parsed reports whether the converter holds a document.
func (c *Converter) Parsed() bool { return c.doc != nil }

// Convert runs the collector at the given sampling interval and parses its
// output. On failure the converter stays Unparsed.
func (c *Converter) Convert(ctx context.Context, interval int) error {
	if c.doc != nil {
		return ErrAlreadyParsed
	}
	if c.runner == nil {
		return errors.New("converter has no collector")
	}

	sp := buffer.New(c.spool, c.logger)
	defer sp.Close()

	start := time.Now()
	if err := c.runner.Run(ctx, c.input, interval, sp); err != nil {
		return fmt.Errorf("convert %s: %w", c.input, err)
	}
	if err := sp.Rewind(); err != nil {
		return fmt.Errorf("rewind collector output: %w", err)
	}
	data, err := io.ReadAll(sp)
	if err != nil {
		return fmt.Errorf("read collector output: %w", err)
	}
	if err := c.load(data); err != nil {
		return fmt.Errorf("convert %s: %w", c.input, err)
	}

	c.logger.Info("Converted capture",
		zap.String("input", c.input),
		zap.String("host", c.host.Nodename),
		zap.Int("samples", len(c.host.Statistics)),
		zap.Int("bytes", len(data)),
		zap.Bool("spilled", sp.Spilled()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// load parses data and installs it only if parsing fully succeeds.
func (c *Converter) load(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse capture document: %w", err)
	}
	if len(doc.Sysstat.Hosts) == 0 {
		return ErrNoHost
	}
	if n := len(doc.Sysstat.Hosts); n > 1 {
		c.logger.Warn("Capture holds several hosts, using the first",
			zap.Int("hosts", n))
	}

	c.raw = bytes.Clone(data)
	c.doc = &doc
	c.host = &doc.Sysstat.Hosts[0]
	c.Invalidate()
	return nil
}

// Invalidate drops the cached timestamp sequences.
func (c *Converter) Invalidate() {
	c.unixTimes = nil
	c.offsetTimes = nil
}

// Dump returns the document as indented JSON with members in their
// original order.
func (c *Converter) Dump() ([]byte, error) {
	if c.doc == nil {
		return nil, ErrNoData
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimRight(c.raw, " \t\r\n"), "", "    "); err != nil {
		return nil, fmt.Errorf("indent capture document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Version returns the sysdata-version of the capture.
func (c *Converter) Version() (string, error) {
	if c.doc == nil {
		return "", ErrNoData
	}
	return c.doc.Sysstat.Version, nil
}

// Hostname returns the nodename of the captured host.
func (c *Converter) Hostname() (string, error) {
	if c.doc == nil {
		return "", ErrNoData
	}
	return c.host.Nodename, nil
}

// FileDate returns the capture date of the data file.
func (c *Converter) FileDate() (string, error) {
	if c.doc == nil {
		return "", ErrNoData
	}
	return c.host.FileDate, nil
}

// Host returns a copy of the host record used by all read operations.
func (c *Converter) Host() (Host, error) {
	if c.doc == nil {
		return Host{}, ErrNoData
	}
	h := *c.host
	h.Statistics = cloneDataPoints(c.host.Statistics)
	return h, nil
}

// DataPoints returns a copy of the samples in chronological order.
func (c *Converter) DataPoints() ([]DataPoint, error) {
	if c.doc == nil {
		return nil, ErrNoData
	}
	return cloneDataPoints(c.host.Statistics), nil
}

// Metrics resolves a slash-delimited metric path against every sample.
func (c *Converter) Metrics(path string) ([]float64, error) {
	if c.doc == nil {
		return nil, ErrNoData
	}
	p, err := ParseMetricPath(path)
	if err != nil {
		return nil, err
	}
	return c.MetricsFor(p)
}

// MetricsFor resolves p against every sample, in sample order. A device
// path contributes one value per matching device entry, so a sample may
// contribute none or several.
func (c *Converter) MetricsFor(p MetricPath) ([]float64, error) {
	if c.doc == nil {
		return nil, ErrNoData
	}
	out := make([]float64, 0, len(c.host.Statistics))
	matched := 0
	for i, dp := range c.host.Statistics {
		var (
			n   int
			err error
		)
		out, n, err = p.collect(dp, out)
		if err != nil {
			return nil, fmt.Errorf("%s: sample %d: %w", p, i, err)
		}
		matched += n
	}
	if matched == 0 && len(c.host.Statistics) > 0 {
		return nil, fmt.Errorf("%s: %w", p, ErrMetricNotFound)
	}
	return out, nil
}

// UnixTimes returns the epoch second of every sample. Timestamps are read
// as local time.
func (c *Converter) UnixTimes() ([]int64, error) {
	if c.doc == nil {
		return nil, ErrNoData
	}
	if c.unixTimes == nil {
		times := make([]int64, len(c.host.Statistics))
		for i, dp := range c.host.Statistics {
			t, err := time.ParseInLocation(timestampLayout,
				dp.Timestamp.Date+" "+dp.Timestamp.Time, time.Local)
			if err != nil {
				return nil, fmt.Errorf("sample %d: parse timestamp: %w", i, err)
			}
			times[i] = t.Unix()
		}
		c.unixTimes = times
	}
	return slices.Clone(c.unixTimes), nil
}

// OffsetTimes returns the seconds elapsed since the first sample for every
// sample. The first offset is always zero.
func (c *Converter) OffsetTimes() ([]int64, error) {
	if c.doc == nil {
		return nil, ErrNoData
	}
	if c.offsetTimes == nil {
		times, err := c.UnixTimes()
		if err != nil {
			return nil, err
		}
		offsets := make([]int64, len(times))
		for i, t := range times {
			offsets[i] = t - times[0]
		}
		c.offsetTimes = offsets
	}
	return slices.Clone(c.offsetTimes), nil
}

// Series resolves path into a timestamped series. Every sample must yield
// exactly one value.
func (c *Converter) Series(path string) (models.Series, error) {
	if c.doc == nil {
		return models.Series{}, ErrNoData
	}
	p, err := ParseMetricPath(path)
	if err != nil {
		return models.Series{}, err
	}
	times, err := c.UnixTimes()
	if err != nil {
		return models.Series{}, err
	}
	offsets, err := c.OffsetTimes()
	if err != nil {
		return models.Series{}, err
	}

	s := models.Series{
		Path:   p.String(),
		Host:   c.host.Nodename,
		Points: make([]models.Point, len(times)),
	}
	var buf []float64
	for i, dp := range c.host.Statistics {
		var n int
		buf, n, err = p.collect(dp, buf[:0])
		if err != nil {
			return models.Series{}, fmt.Errorf("%s: sample %d: %w", p, i, err)
		}
		if n != 1 {
			return models.Series{}, fmt.Errorf("%s: sample %d: %w: %d matches",
				p, i, ErrSeriesMisaligned, n)
		}
		s.Points[i] = models.Point{Unix: times[i], Offset: offsets[i], Value: buf[0]}
	}
	return s, nil
}
