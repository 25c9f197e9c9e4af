// Package collector runs the external sadf command that turns a sysstat
// binary data file into a JSON capture document.
//
// The command line is always
//
//	sadf -j -- <category flags...> <interval> <input>
//
// and its standard output is streamed into a caller-provided sink.
package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Guliveer/sadfjson/internal/platform"
)

const (
	// DefaultProgram is the sysstat data-extraction tool.
	DefaultProgram = "sadf"

	// DefaultInterval is the sampling interval in seconds.
	DefaultInterval = 1

	jsonFlag = "-j"

	// incompatibleMessage is printed by sadf when the data file was written
	// by a different sysstat version.
	incompatibleMessage = "Data file format is not compatible"
)

var (
	// ErrInputAccess is returned when the input file cannot be read.
	// No subprocess is started in that case.
	ErrInputAccess = errors.New("input file is not accessible")

	// ErrInvalidInterval is returned for a sampling interval below one second.
	ErrInvalidInterval = errors.New("interval must be a positive number of seconds")

	// ErrIncompatibleFormat is matched by an ExitError when sadf rejected the
	// data file version.
	ErrIncompatibleFormat = errors.New("data file format is not compatible")
)

// Options describes the sadf invocation.
type Options struct {
	Program    string
	Categories []Category
}

// DefaultOptions returns sadf with every category selected.
func DefaultOptions() Options {
	return Options{
		Program:    DefaultProgram,
		Categories: DefaultCategories(),
	}
}

// BuildArgs returns the argument list (without the program name) for
// converting input at the given interval.
func BuildArgs(opts Options, interval int, input string) ([]string, error) {
	if interval < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, interval)
	}
	args := []string{jsonFlag, "--"}
	for _, c := range opts.Categories {
		args = append(args, c.Args()...)
	}
	args = append(args, strconv.Itoa(interval), input)
	return args, nil
}

// ExitError reports a sadf run that exited with a non-zero status.
type ExitError struct {
	Program string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Program, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Program, e.Code, msg)
}

// Is lets errors.Is match ErrIncompatibleFormat when sadf reported a
// version mismatch.
func (e *ExitError) Is(target error) bool {
	return target == ErrIncompatibleFormat && strings.Contains(e.Stderr, incompatibleMessage)
}

// Invoker runs sadf for a single input file at a time.
type Invoker struct {
	opts       Options
	logger     *zap.Logger
	checkInput func(string) error
}

// New creates an Invoker. Empty Program and Categories fall back to the defaults.
func New(opts Options, logger *zap.Logger) *Invoker {
	if opts.Program == "" {
		opts.Program = DefaultProgram
	}
	if len(opts.Categories) == 0 {
		opts.Categories = DefaultCategories()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		opts:       opts,
		logger:     logger.Named("collector"),
		checkInput: platform.CheckReadable,
	}
}

// Name returns the program the invoker runs.
func (i *Invoker) Name() string { return i.opts.Program }

// IsAvailable reports whether the program can be found on PATH.
func (i *Invoker) IsAvailable() bool {
	_, err := exec.LookPath(i.opts.Program)
	return err == nil
}

// Run converts input and streams the JSON document into sink. It blocks
// until the subprocess exits. A non-zero exit is returned as *ExitError and
// is never retried.
func (i *Invoker) Run(ctx context.Context, input string, interval int, sink io.Writer) error {
	if err := i.checkInput(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInputAccess, err)
	}

	args, err := BuildArgs(i.opts, interval, input)
	if err != nil {
		return err
	}

	i.logger.Debug("Running collector",
		zap.String("program", i.opts.Program),
		zap.Strings("args", args))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, i.opts.Program, args...)
	cmd.Stdout = sink
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e := &ExitError{
				Program: i.opts.Program,
				Code:    exitErr.ExitCode(),
				Stderr:  stderr.String(),
			}
			i.logger.Error("Collector failed",
				zap.Int("code", e.Code),
				zap.String("stderr", strings.TrimSpace(e.Stderr)))
			return e
		}
		return fmt.Errorf("run %s: %w", i.opts.Program, err)
	}

	i.logger.Debug("Collector finished", zap.String("input", input))
	return nil
}
