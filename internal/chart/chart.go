// Package chart renders metric series as an interactive HTML line chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Guliveer/sadfjson/internal/models"
)

// ErrNoSeries is returned when there is nothing to plot.
var ErrNoSeries = errors.New("no series to chart")

// New builds a line chart with one line per series. The x axis holds the
// offsets, in seconds, of the longest series.
func New(title string, series ...models.Series) (*charts.Line, error) {
	if len(series) == 0 {
		return nil, ErrNoSeries
	}

	longest := series[0]
	for _, s := range series[1:] {
		if len(s.Points) > len(longest.Points) {
			longest = s
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: longest.Host}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(series) > 1)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "offset (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)
	line.SetXAxis(longest.Offsets())

	for _, s := range series {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = opts.LineData{Value: p.Value}
		}
		line.AddSeries(s.Path, data)
	}
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(false)}),
	)
	return line, nil
}

// Render writes the chart page to w.
func Render(w io.Writer, title string, series ...models.Series) error {
	line, err := New(title, series...)
	if err != nil {
		return err
	}
	return line.Render(w)
}

// Save writes the chart page to the file at path.
func Save(path, title string, series ...models.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Render(f, title, series...); err != nil {
		f.Close()
		return fmt.Errorf("render chart: %w", err)
	}
	return f.Close()
}
