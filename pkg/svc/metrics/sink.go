package metrics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o640
)

// Header is the first row of every CSV file.
func Header() []string {
	return []string{"timestamp", "node", "process", "cpu_percent", "memory"}
}

// Sink appends samples to one CSV file per node inside a run directory.
// Appends to different nodes may run concurrently; appends to one node are serialized.
type Sink struct {
	dir string

	mu     sync.Mutex
	files  map[string]*nodeFile
	closed bool
}

type nodeFile struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewSink creates the run directory. It fails with ErrRunDirExists when dir
// already exists, so two runs never write into the same files.
func NewSink(dir string) (*Sink, error) {
	err := os.MkdirAll(filepath.Dir(dir), dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	err = os.Mkdir(dir, dirPermissions)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunDirExists, dir)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	return &Sink{dir: dir, files: make(map[string]*nodeFile)}, nil
}

// Dir returns the run directory.
func (s *Sink) Dir() string {
	return s.dir
}

// FileName returns the CSV file name for node. Unit names such as app/0
// become app-0.csv.
func FileName(node string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", "..", "-")

	return replacer.Replace(node) + ".csv"
}

// Append writes samples for node and flushes them to disk.
func (s *Sink) Append(node string, samples []Sample) error {
	target, err := s.file(node)
	if err != nil {
		return err
	}

	target.mu.Lock()
	defer target.mu.Unlock()

	for _, sample := range samples {
		err = target.writer.Write(Row(sample))
		if err != nil {
			return fmt.Errorf("failed to write sample for %s: %w", node, err)
		}
	}

	target.writer.Flush()

	err = target.writer.Error()
	if err != nil {
		return fmt.Errorf("failed to flush samples for %s: %w", node, err)
	}

	return nil
}

// Files returns the paths of the CSV files created so far, sorted.
func (s *Sink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.files))
	for _, target := range s.files {
		paths = append(paths, target.path)
	}

	slices.Sort(paths)

	return paths
}

// Close flushes and closes every file. Later appends fail with ErrSinkClosed.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	var errs []error

	for _, target := range s.files {
		target.mu.Lock()
		target.writer.Flush()
		errs = append(errs, target.writer.Error(), target.file.Close())
		target.mu.Unlock()
	}

	return errors.Join(errs...)
}

// Row renders a sample as CSV fields.
func Row(sample Sample) []string {
	return []string{
		sample.Timestamp.UTC().Format(time.RFC3339Nano),
		sample.Node,
		sample.Process,
		strconv.FormatFloat(sample.CPUPercent, 'f', -1, 64),
		strconv.FormatInt(sample.MemoryKiB, 10),
	}
}

func (s *Sink) file(node string) (*nodeFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSinkClosed
	}

	if target, ok := s.files[node]; ok {
		return target, nil
	}

	path := filepath.Join(s.dir, FileName(node))

	//nolint:gosec // path is built from the run directory and a sanitized node name
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	writer := csv.NewWriter(file)

	err = writer.Write(Header())
	if err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
	}

	target := &nodeFile{path: path, file: file, writer: writer}
	s.files[node] = target

	return target, nil
}
