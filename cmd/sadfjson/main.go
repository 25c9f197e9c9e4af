// Package main is the entry point for sadfjson. It converts a sysstat data
// file to JSON through sadf and prints metadata, the full document, or
// selected metric series, optionally exporting them or charting them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/sadfjson/internal/chart"
	"github.com/Guliveer/sadfjson/internal/collector"
	"github.com/Guliveer/sadfjson/internal/config"
	"github.com/Guliveer/sadfjson/internal/export"
	"github.com/Guliveer/sadfjson/internal/models"
	"github.com/Guliveer/sadfjson/internal/platform"
	"github.com/Guliveer/sadfjson/internal/sysstat"
)

// version is set at build time via -ldflags.
var version = "dev"

// metricFlags collects repeated -metric values.
type metricFlags []string

func (m *metricFlags) String() string { return strings.Join(*m, ",") }

func (m *metricFlags) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type options struct {
	configPath  string
	writeConfig string
	showVersion bool
	program     string
	interval    int
	logLevel    string
	jsonInput   bool
	dump        bool
	info        bool
	metrics     metricFlags
	format      string
	output      string
	chartPath   string
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, string, error) {
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Path to configuration file (default: search standard locations)")
	fs.StringVar(&o.program, "program", "", "sadf executable to run")
	fs.IntVar(&o.interval, "interval", 0, "Sampling interval in seconds")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&o.jsonInput, "json", false, "Input is a JSON document already produced by sadf -j")
	fs.BoolVar(&o.dump, "dump", false, "Print the converted JSON document")
	fs.BoolVar(&o.info, "info", false, "Print capture metadata")
	fs.Var(&o.metrics, "metric", "Metric path to print, e.g. cpu-load/all/user (repeatable)")
	fs.StringVar(&o.format, "export", "", "Export format for -o (csv, jsonl, parquet)")
	fs.StringVar(&o.output, "o", "", "Write selected metrics to this file")
	fs.StringVar(&o.chartPath, "chart", "", "Write an HTML chart of selected metrics to this file")
	fs.StringVar(&o.writeConfig, "write-config", "", "Write the effective configuration to this file")
	fs.BoolVar(&o.showVersion, "version", false, "Show version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if o.showVersion || (o.writeConfig != "" && fs.NArg() == 0) {
		return o, "", nil
	}
	if fs.NArg() != 1 {
		return nil, "", errors.New("expected exactly one input file")
	}
	if (o.output != "" || o.chartPath != "") && len(o.metrics) == 0 {
		return nil, "", errors.New("-o and -chart require at least one -metric")
	}
	return o, fs.Arg(0), nil
}

func main() {
	fs := flag.NewFlagSet("sadfjson", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: sadfjson [flags] <sa-file>\n\n")
		fs.PrintDefaults()
	}
	opts, input, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "sadfjson: %v\n", err)
		fs.Usage()
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("sadfjson %s\n", version)
		os.Exit(0)
	}

	cli := config.CLIOverrides{
		Program:  opts.program,
		Interval: opts.interval,
		LogLevel: opts.logLevel,
		Format:   opts.format,
	}
	var cfg *config.Config
	if opts.configPath != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, opts.configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.writeConfig != "" {
		if err := config.WriteConfig(cfg, opts.writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote configuration to %s\n", opts.writeConfig)
		if input == "" {
			os.Exit(0)
		}
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, input, os.Stdout, logger); err != nil {
		logger.Error("Conversion failed", zap.String("input", input), zap.Error(err))
		os.Exit(1)
	}
}

// run converts input and writes the requested outputs.
func run(ctx context.Context, cfg *config.Config, opts *options, input string, out io.Writer, logger *zap.Logger) error {
	conv, err := load(ctx, cfg, opts.jsonInput, input, logger)
	if err != nil {
		return err
	}

	host, err := conv.Hostname()
	if err != nil {
		return err
	}
	if platform.IsForeignCapture(ctx, host) {
		logger.Info("Capture was recorded on another host", zap.String("nodename", host))
	}

	if opts.info {
		if err := printInfo(out, conv); err != nil {
			return err
		}
	}

	if opts.dump || (!opts.info && len(opts.metrics) == 0) {
		data, err := conv.Dump()
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}

	if len(opts.metrics) == 0 {
		return nil
	}

	series := make([]models.Series, 0, len(opts.metrics))
	for _, path := range opts.metrics {
		s, err := conv.Series(path)
		if err != nil {
			return err
		}
		series = append(series, s)
		if opts.output == "" && opts.chartPath == "" {
			printSeries(out, s)
		}
	}

	if opts.output != "" {
		format := cfg.Export.Format
		if opts.format == "" {
			if f, ok := export.LookupPath(opts.output); ok {
				format = f.Name()
			}
		}
		if err := export.Save(opts.output, format, series...); err != nil {
			return err
		}
		logger.Info("Exported series",
			zap.String("file", opts.output),
			zap.String("format", format),
			zap.Int("series", len(series)))
	}

	if opts.chartPath != "" {
		if err := chart.Save(opts.chartPath, input, series...); err != nil {
			return err
		}
		logger.Info("Wrote chart", zap.String("file", opts.chartPath))
	}
	return nil
}

// load returns a parsed converter either by running sadf on a binary data
// file or by reading an existing JSON document.
func load(ctx context.Context, cfg *config.Config, jsonInput bool, input string, logger *zap.Logger) (*sysstat.Converter, error) {
	if jsonInput {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", collector.ErrInputAccess, err)
		}
		return sysstat.Parse(data, logger)
	}

	copts, err := cfg.CollectorOptions()
	if err != nil {
		return nil, err
	}
	inv := collector.New(copts, logger)
	if !inv.IsAvailable() {
		logger.Warn("Collector not found on PATH", zap.String("program", inv.Name()))
	}

	conv := sysstat.NewConverter(input, inv, cfg.SpoolOptions(), logger)
	if err := conv.Convert(ctx, cfg.Collector.Interval); err != nil {
		return nil, err
	}
	return conv, nil
}

func printInfo(w io.Writer, conv *sysstat.Converter) error {
	host, err := conv.Host()
	if err != nil {
		return err
	}
	ver, err := conv.Version()
	if err != nil {
		return err
	}
	offsets, err := conv.OffsetTimes()
	if err != nil {
		return err
	}
	var span int64
	if len(offsets) > 0 {
		span = offsets[len(offsets)-1]
	}
	fmt.Fprintf(w, "version:  %s\n", ver)
	fmt.Fprintf(w, "hostname: %s\n", host.Nodename)
	fmt.Fprintf(w, "date:     %s\n", host.FileDate)
	fmt.Fprintf(w, "samples:  %d\n", len(host.Statistics))
	fmt.Fprintf(w, "span:     %ds\n", span)
	if len(host.Statistics) > 0 {
		fmt.Fprintf(w, "categories: %s\n", strings.Join(host.Statistics[0].CategoryNames(), ", "))
	}
	return nil
}

func printSeries(w io.Writer, s models.Series) {
	fmt.Fprintf(w, "# %s\n", s.Path)
	for _, p := range s.Points {
		fmt.Fprintf(w, "%d\t%g\n", p.Offset, p.Value)
	}
}

// initLogger creates a zap logger based on the configuration.
// It writes human-readable output to stderr, keeping stdout for data, and
// optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stderr),
			level,
		),
	}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
