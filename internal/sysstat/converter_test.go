package sysstat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Guliveer/sadfjson/internal/buffer"
)

// fakeRunner stands in for the sadf invoker.
type fakeRunner struct {
	output   []byte
	err      error
	calls    int
	interval int
}

func (f *fakeRunner) Run(_ context.Context, _ string, interval int, sink io.Writer) error {
	f.calls++
	f.interval = interval
	if f.err != nil {
		return f.err
	}
	_, err := sink.Write(f.output)
	return err
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "capture.json"))
	require.NoError(t, err)
	return data
}

func parsedFixture(t *testing.T) *Converter {
	t.Helper()
	c, err := Parse(loadFixture(t), zap.NewNop())
	require.NoError(t, err)
	return c
}

func localUnix(t *testing.T, s string) int64 {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.Local)
	require.NoError(t, err)
	return ts.Unix()
}

func TestConvert_ParsesCollectorOutput(t *testing.T) {
	runner := &fakeRunner{output: loadFixture(t)}
	c := NewConverter("sa01", runner, buffer.Options{MaxMemory: 64, Dir: t.TempDir()}, zap.NewNop())
	require.False(t, c.Parsed())

	require.NoError(t, c.Convert(context.Background(), 10))
	assert.True(t, c.Parsed())
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, 10, runner.interval)

	version, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, "12.5.2", version)

	host, err := c.Hostname()
	require.NoError(t, err)
	assert.Equal(t, "db01", host)

	date, err := c.FileDate()
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", date)
}

func TestConvert_FailureKeepsUnparsed(t *testing.T) {
	runner := &fakeRunner{err: errors.New("sadf exited with status 1")}
	c := NewConverter("sa01", runner, buffer.Options{}, nil)

	err := c.Convert(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, c.Parsed())

	_, err = c.Metrics("memory/memfree")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestConvert_MalformedOutputKeepsUnparsed(t *testing.T) {
	c := NewConverter("sa01", &fakeRunner{output: []byte(`{"sysstat": {"hosts": [`)}, buffer.Options{}, nil)
	require.Error(t, c.Convert(context.Background(), 1))
	assert.False(t, c.Parsed())

	c = NewConverter("sa01", &fakeRunner{output: []byte(`{"sysstat": {"hosts": []}}`)}, buffer.Options{}, nil)
	assert.ErrorIs(t, c.Convert(context.Background(), 1), ErrNoHost)
	assert.False(t, c.Parsed())
}

func TestConvert_Twice(t *testing.T) {
	runner := &fakeRunner{output: loadFixture(t)}
	c := NewConverter("sa01", runner, buffer.Options{}, nil)
	require.NoError(t, c.Convert(context.Background(), 1))
	assert.ErrorIs(t, c.Convert(context.Background(), 1), ErrAlreadyParsed)
	assert.Equal(t, 1, runner.calls)
}

func TestReadersBeforeConvert(t *testing.T) {
	c := NewConverter("sa01", &fakeRunner{}, buffer.Options{}, nil)

	_, err := c.Dump()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.Version()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.Hostname()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.FileDate()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.Host()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.DataPoints()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.Metrics("memory/memfree")
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.MetricsFor(Simple{Class: "memory", Metric: "memfree"})
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.UnixTimes()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.OffsetTimes()
	assert.ErrorIs(t, err, ErrNoData)
	_, err = c.Series("memory/memfree")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMetrics_Simple(t *testing.T) {
	c := parsedFixture(t)
	got, err := c.Metrics("memory/memused-percent")
	require.NoError(t, err)
	assert.Equal(t, []float64{75, 76, 77}, got)
}

func TestMetrics_SimpleScenario(t *testing.T) {
	doc := `{"sysstat": {"sysdata-version": "12.5.2", "hosts": [{"nodename": "h", "file-date": "2023-01-01",
		"statistics": [
			{"timestamp": {"date": "2023-01-01", "time": "00:00:00"}, "cpu-load": {"user": 12.5}},
			{"timestamp": {"date": "2023-01-01", "time": "00:00:10"}, "cpu-load": {"user": 12.5}}
		]}]}}`
	c, err := Parse([]byte(doc), nil)
	require.NoError(t, err)

	got, err := c.Metrics("cpu-load/user")
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 12.5}, got)
}

func TestMetrics_Device(t *testing.T) {
	c := parsedFixture(t)

	got, err := c.Metrics("cpu-load/all/user")
	require.NoError(t, err)
	assert.Equal(t, []float64{12.5, 20, 7.25}, got)

	got, err = c.Metrics("disk/sda/tps")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4, 5}, got)

	dps, err := c.DataPoints()
	require.NoError(t, err)
	assert.Len(t, got, len(dps))
}

func TestMetrics_SubclassDevice(t *testing.T) {
	c := parsedFixture(t)

	got, err := c.Metrics("network/net-dev/eth0/rxkB")
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 101.5, 102.5}, got)

	got, err = c.Metrics("network/net-edev/eth0/rxdrop")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, got)
}

func TestMetrics_DeviceMatchesMultipleEntries(t *testing.T) {
	doc := `{"sysstat": {"hosts": [{"nodename": "h", "statistics": [
		{"timestamp": {"date": "2023-01-01", "time": "00:00:00"},
		 "disk": [{"disk-device": "sda", "tps": 1}, {"disk-device": "sda", "tps": 2}]},
		{"timestamp": {"date": "2023-01-01", "time": "00:00:10"},
		 "disk": [{"disk-device": "sdb", "tps": 9}]}
	]}]}}`
	c, err := Parse([]byte(doc), nil)
	require.NoError(t, err)

	got, err := c.Metrics("disk/sda/tps")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got)

	_, err = c.Series("disk/sda/tps")
	assert.ErrorIs(t, err, ErrSeriesMisaligned)
}

func TestMetrics_Errors(t *testing.T) {
	c := parsedFixture(t)

	tests := []struct {
		path string
		want error
	}{
		{"memory", ErrUnsupportedPath},
		{"a/b/c/d/e", ErrUnsupportedPath},
		{"hugepages/hugfree", ErrMetricNotFound},
		{"memory/nosuch", ErrMetricNotFound},
		{"disk/nvme0n1/tps", ErrMetricNotFound},
		{"disk/sda/nosuch", ErrMetricNotFound},
		{"network/net-nfs/eth0/rxkB", ErrMetricNotFound},
		{"memory/eth0/rxkB", ErrUnknownDevice},
		{"disk/tps", ErrShapeMismatch},
		{"network/eth0/rxkB", ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := c.Metrics(tt.path)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTimes(t *testing.T) {
	c := parsedFixture(t)
	base := localUnix(t, "2023-01-01 00:00:00")

	unix, err := c.UnixTimes()
	require.NoError(t, err)
	assert.Equal(t, []int64{base, base + 10, base + 20}, unix)

	offsets, err := c.OffsetTimes()
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 20}, offsets)

	for i := 1; i < len(unix); i++ {
		assert.LessOrEqual(t, unix[i-1], unix[i])
	}
}

func TestTimes_CachedCopies(t *testing.T) {
	c := parsedFixture(t)

	first, err := c.OffsetTimes()
	require.NoError(t, err)
	first[0] = 42

	again, err := c.OffsetTimes()
	require.NoError(t, err)
	assert.Equal(t, int64(0), again[0], "callers must not be able to mutate the cache")

	c.Invalidate()
	afterReset, err := c.OffsetTimes()
	require.NoError(t, err)
	assert.Equal(t, again, afterReset)
}

func TestTimes_BadTimestamp(t *testing.T) {
	doc := `{"sysstat": {"hosts": [{"nodename": "h", "statistics": [
		{"timestamp": {"date": "01/01/23", "time": "00:00:00"}, "memory": {"memfree": 1}}
	]}]}}`
	c, err := Parse([]byte(doc), nil)
	require.NoError(t, err)

	_, err = c.UnixTimes()
	assert.Error(t, err)
	_, err = c.OffsetTimes()
	assert.Error(t, err)
}

func TestTimes_Empty(t *testing.T) {
	c, err := Parse([]byte(`{"sysstat": {"hosts": [{"nodename": "h", "statistics": []}]}}`), nil)
	require.NoError(t, err)

	offsets, err := c.OffsetTimes()
	require.NoError(t, err)
	assert.Empty(t, offsets)

	values, err := c.Metrics("memory/memfree")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestDump_RoundTrip(t *testing.T) {
	data := loadFixture(t)
	c, err := Parse(data, nil)
	require.NoError(t, err)

	dump, err := c.Dump()
	require.NoError(t, err)

	var original, reparsed any
	require.NoError(t, json.Unmarshal(data, &original))
	require.NoError(t, json.Unmarshal(dump, &reparsed))
	assert.Equal(t, original, reparsed)

	// Members keep their encountered order rather than being sorted.
	assert.Less(t, bytes.Index(dump, []byte(`"sysdata-version"`)), bytes.Index(dump, []byte(`"hosts"`)))
	assert.Less(t, bytes.Index(dump, []byte(`"timestamp"`)), bytes.Index(dump, []byte(`"cpu-load"`)))
}

func TestSeries(t *testing.T) {
	c := parsedFixture(t)
	base := localUnix(t, "2023-01-01 00:00:00")

	s, err := c.Series("queue/ldavg-1")
	require.NoError(t, err)
	assert.Equal(t, "queue/ldavg-1", s.Path)
	assert.Equal(t, "db01", s.Host)
	require.Len(t, s.Points, 3)
	assert.Equal(t, base+20, s.Points[2].Unix)
	assert.Equal(t, int64(20), s.Points[2].Offset)
	assert.Equal(t, []float64{0.5, 1.5, 2.5}, s.Values())
}

func TestDataPoints(t *testing.T) {
	c := parsedFixture(t)
	dps, err := c.DataPoints()
	require.NoError(t, err)
	require.Len(t, dps, 3)

	assert.Equal(t, "00:00:10", dps[1].Timestamp.Time)
	assert.Equal(t, []string{"cpu-load", "disk", "memory", "network", "queue"}, dps[0].CategoryNames())
	_, ok := dps[0].Category("timestamp")
	assert.False(t, ok, "timestamp is not a category")

	host, err := c.Host()
	require.NoError(t, err)
	assert.Equal(t, 1, host.CPUs)
	assert.Equal(t, "x86_64", host.Machine)
}

func TestMetrics_USBDevices(t *testing.T) {
	doc := `{"sysstat": {"hosts": [{"nodename": "h", "statistics": [
		{"timestamp": {"date": "2023-01-01", "time": "00:00:00"},
		 "power-management": {"usb-devices": [
			{"bus_number": 1, "idvendor": "1d6b", "manufact": "Linux", "maxpower": 0},
			{"bus_number": 2, "idvendor": "046d", "manufact": "Logitech", "maxpower": 98}
		 ]}}
	]}]}}`
	c, err := Parse([]byte(doc), nil)
	require.NoError(t, err)

	got, err := c.Metrics("power-management/usb-devices/Logitech/maxpower")
	require.NoError(t, err)
	assert.Equal(t, []float64{98}, got)
}

func TestParse_CopiesInput(t *testing.T) {
	data := loadFixture(t)
	c, err := Parse(data, nil)
	require.NoError(t, err)

	copy(data[len(data)-5:], "XXXXX")

	dump, err := c.Dump()
	require.NoError(t, err)
	var v any
	assert.NoError(t, json.Unmarshal(dump, &v))
}

func TestReaders_ReturnCopies(t *testing.T) {
	c := parsedFixture(t)
	before, err := c.UnixTimes()
	require.NoError(t, err)

	dps, err := c.DataPoints()
	require.NoError(t, err)
	dps[0].Timestamp.Time = "23:59:59"
	dps[0].Categories["memory"] = json.RawMessage(`{"memused-percent": -1}`)

	host, err := c.Host()
	require.NoError(t, err)
	host.Nodename = "other"
	host.Statistics[1].Timestamp.Date = "1999-01-01"

	c.Invalidate()
	after, err := c.UnixTimes()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	name, err := c.Hostname()
	require.NoError(t, err)
	assert.Equal(t, "db01", name)

	values, err := c.Metrics("memory/memused-percent")
	require.NoError(t, err)
	assert.Equal(t, []float64{75, 76, 77}, values)
}

func TestDump_SingleTrailingNewline(t *testing.T) {
	data := loadFixture(t)
	require.True(t, bytes.HasSuffix(data, []byte("\n")))

	c, err := Parse(data, nil)
	require.NoError(t, err)
	dump, err := c.Dump()
	require.NoError(t, err)

	assert.True(t, bytes.HasSuffix(dump, []byte("}\n")))
	assert.False(t, bytes.HasSuffix(dump, []byte("\n\n")))
}
