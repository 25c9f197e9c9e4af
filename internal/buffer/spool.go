// Package buffer provides the rewindable sink that collector output is
// captured into. Small outputs stay in memory; once the configured limit is
// crossed the content is moved to a temporary file and the spool continues
// writing there. The temporary file is removed on Close.
package buffer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
)

// DefaultMaxMemory is the number of bytes kept in memory before spilling to disk.
const DefaultMaxMemory = 4 << 20

// ErrClosed is returned by operations on a closed Spool.
var ErrClosed = errors.New("spool is closed")

// Options controls where and when a Spool spills to disk.
type Options struct {
	// Dir is the directory for the temporary file. Empty means os.TempDir().
	Dir string
	// MaxMemory is the in-memory limit in bytes. Zero or less means DefaultMaxMemory.
	MaxMemory int64
}

// Spool is a write-then-read buffer. Writes always append; reads and seeks
// move an independent read position. A Spool is owned by a single conversion.
type Spool struct {
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	mem    []byte
	pos    int64
	file   *os.File
	closed bool
}

// New creates an empty in-memory Spool.
func New(opts Options, logger *zap.Logger) *Spool {
	if opts.MaxMemory <= 0 {
		opts.MaxMemory = DefaultMaxMemory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spool{opts: opts, logger: logger}
}

// Write appends p to the spool, spilling to a temporary file when the
// in-memory limit would be exceeded.
func (s *Spool) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	if s.file == nil && int64(len(s.mem)+len(p)) > s.opts.MaxMemory {
		if err := s.spill(); err != nil {
			return 0, err
		}
	}

	if s.file == nil {
		s.mem = append(s.mem, p...)
		return len(p), nil
	}

	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return 0, fmt.Errorf("seek spool file: %w", err)
	}
	n, err := s.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("write spool file: %w", err)
	}
	return n, nil
}

// Read reads from the current read position.
func (s *Spool) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	if s.file != nil {
		if _, err := s.file.Seek(s.pos, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek spool file: %w", err)
		}
		n, err := s.file.Read(p)
		s.pos += int64(n)
		return n, err
	}

	if s.pos >= int64(len(s.mem)) {
		return 0, io.EOF
	}
	n := copy(p, s.mem[s.pos:])
	s.pos += int64(n)
	return n, nil
}

// Seek moves the read position. Writes are unaffected and always append.
func (s *Spool) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	size, err := s.sizeLocked()
	if err != nil {
		return 0, err
	}

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		abs = size + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek: negative position %d", abs)
	}
	s.pos = abs
	return abs, nil
}

// Rewind moves the read position back to the start of the captured output.
func (s *Spool) Rewind() error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// Size returns the number of bytes written so far.
func (s *Spool) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeLocked()
}

// Spilled reports whether the content has moved to a temporary file.
func (s *Spool) Spilled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file != nil
}

// Close releases the buffer and removes the temporary file, if any.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.mem = nil

	if s.file == nil {
		return nil
	}
	name := s.file.Name()
	closeErr := s.file.Close()
	s.file = nil
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove spool file",
			zap.String("file", name),
			zap.Error(err))
	}
	return closeErr
}

// sizeLocked must be called with s.mu held.
func (s *Spool) sizeLocked() (int64, error) {
	if s.file == nil {
		return int64(len(s.mem)), nil
	}
	info, err := s.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat spool file: %w", err)
	}
	return info.Size(), nil
}

// spill moves the in-memory content to a temporary file.
// Must be called with s.mu held.
func (s *Spool) spill() error {
	f, err := os.CreateTemp(s.opts.Dir, "sadfjson-*.json")
	if err != nil {
		return fmt.Errorf("create spool file: %w", err)
	}
	if _, err := f.Write(s.mem); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("write spool file: %w", err)
	}

	s.logger.Debug("Spilling collector output to disk",
		zap.String("file", f.Name()),
		zap.Int("buffered", len(s.mem)))

	s.file = f
	s.mem = nil
	return nil
}
