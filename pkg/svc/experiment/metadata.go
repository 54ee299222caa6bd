package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devantler-tech/scalebench/pkg/svc/metrics"
)

const (
	// MetadataFile is the run summary written into every run directory.
	MetadataFile = "run.json"
	// StatsFile is the Prometheus text-format snapshot of the run counters.
	StatsFile = "stats.prom"
)

// Metadata summarizes a run.
type Metadata struct {
	ID          string    `json:"id"`
	Experiment  string    `json:"experiment"`
	Model       string    `json:"model"`
	Namespace   string    `json:"namespace,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Duration    string    `json:"duration"`
	Interval    string    `json:"interval"`
	Processes   []string  `json:"processes"`
	Nodes       []string  `json:"nodes"`
	Ticks       int       `json:"ticks"`
	FailedTicks int       `json:"failedTicks"`
	Workloads   []string  `json:"workloads"`
	Addons      []string  `json:"addons,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// WriteMetadata writes metadata to dir/run.json.
func WriteMetadata(dir string, metadata *Metadata) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run metadata: %w", err)
	}

	path := filepath.Join(dir, MetadataFile)

	err = os.WriteFile(path, append(data, '\n'), 0o600)
	if err != nil {
		return fmt.Errorf("write run metadata %s: %w", path, err)
	}

	return nil
}

// ReadMetadata reads a run.json file.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a run directory chosen by the user
	if err != nil {
		return nil, fmt.Errorf("read run metadata %s: %w", path, err)
	}

	var metadata Metadata

	err = json.Unmarshal(data, &metadata)
	if err != nil {
		return nil, fmt.Errorf("parse run metadata %s: %w", path, err)
	}

	return &metadata, nil
}

func writeRunFiles(dir string, metadata *Metadata, recorder *metrics.Recorder) error {
	err := WriteMetadata(dir, metadata)
	if err != nil {
		return err
	}

	return recorder.WriteTextfile(filepath.Join(dir, StatsFile))
}
