// Package diag implements diagnostics sinks for raw stream deliveries and
// parse errors.
package diag

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// File names used by [Open].
const (
	StreamLogName = "stream.log"
	ErrorLogName  = "error.log"
)

// Sink receives diagnostics records.
type Sink interface {
	// RecordRaw records one raw delivery exactly as received.
	RecordRaw(b []byte)

	// RecordError records an error description.
	RecordError(msg string)
}

// Discard is a [Sink] that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) RecordRaw([]byte)   {}
func (discard) RecordError(string) {}

// entry formats a log line as epoch_millis|content.
func entry(t time.Time, content []byte) []byte {
	b := strconv.AppendInt(nil, t.UnixMilli(), 10)
	b = append(b, '|')
	return append(b, content...)
}

func epoch(line string) int64 {
	s, _, _ := strings.Cut(line, "|")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SortErrors sorts error lines by their epoch prefix. Lines without a valid
// prefix sort first.
func SortErrors(lines []string) {
	slices.SortStableFunc(lines, func(a, b string) int {
		return cmp.Compare(epoch(a), epoch(b))
	})
}

// File is a [Sink] backed by two files: the raw stream log, appended to on
// every delivery, and the error log, rewritten sorted on every error.
// It is safe for concurrent use.
type File struct {
	mu      sync.Mutex
	raw     *os.File
	errPath string
	errs    []string
	logger  *log.Logger
	now     func() time.Time
}

var _ Sink = &File{}

// Open truncates or creates both log files inside dir.
// The logger may be nil.
func Open(dir string, logger *log.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	raw, err := os.Create(filepath.Join(dir, StreamLogName))
	if err != nil {
		return nil, fmt.Errorf("create stream log: %w", err)
	}
	errPath := filepath.Join(dir, ErrorLogName)
	if err := os.WriteFile(errPath, nil, 0o600); err != nil { //nolint:mnd
		_ = raw.Close()
		return nil, fmt.Errorf("create error log: %w", err)
	}
	return &File{
		raw:     raw,
		errPath: errPath,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// RecordRaw implements Sink.
func (f *File) RecordRaw(b []byte) {
	line := append(entry(f.now(), b), '\n')

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.raw.Write(line); err != nil {
		f.warn("could not write stream log", err)
	}
}

// RecordError implements Sink.
func (f *File) RecordError(msg string) {
	if f.logger != nil {
		f.logger.Debug("stream diagnostic", "error", msg)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, string(entry(f.now(), []byte(msg))))
	SortErrors(f.errs)
	if err := os.WriteFile(f.errPath, []byte(strings.Join(f.errs, "\n")), 0o600); err != nil { //nolint:mnd
		f.warn("could not write error log", err)
	}
}

// Errors returns the recorded error lines sorted by epoch.
func (f *File) Errors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.errs)
}

// ClearErrors forgets recorded errors. The error log is rewritten on the
// next call to RecordError.
func (f *File) ClearErrors() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = nil
}

// Close closes the stream log.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.raw.Close() //nolint:wrapcheck
}

func (f *File) warn(msg string, err error) {
	if f.logger != nil {
		f.logger.Warn(msg, "err", err)
	}
}

// Memory is an in-memory [Sink]. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	raw  [][]byte
	errs []string
}

var _ Sink = &Memory{}

// RecordRaw implements Sink.
func (m *Memory) RecordRaw(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = append(m.raw, slices.Clone(b))
}

// RecordError implements Sink.
func (m *Memory) RecordError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, msg)
}

// Raw returns a copy of the recorded deliveries.
func (m *Memory) Raw() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.raw)
}

// Errors returns a copy of the recorded errors.
func (m *Memory) Errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.errs)
}

// Tee returns a [Sink] that records to every given sink.
func Tee(sinks ...Sink) Sink { return tee(sinks) }

type tee []Sink

func (t tee) RecordRaw(b []byte) {
	for _, s := range t {
		s.RecordRaw(b)
	}
}

func (t tee) RecordError(msg string) {
	for _, s := range t {
		s.RecordError(msg)
	}
}
