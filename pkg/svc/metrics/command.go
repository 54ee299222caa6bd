package metrics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultProcesses are the MicroK8s control-plane daemons sampled by default.
func DefaultProcesses() []string {
	return []string{"k8s-dqlite", "kubelite"}
}

// processNameRegex restricts names to what pgrep -x can match without quoting tricks.
var processNameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,15}$`)

// ProcessSample is one process measurement parsed from a node.
type ProcessSample struct {
	Process    string
	CPUPercent float64
	// MemoryKiB is the last column total reported by pmap -X.
	MemoryKiB int64
}

// Sample is one CSV row.
type Sample struct {
	Timestamp time.Time
	Node      string
	ProcessSample
}

// ValidateProcesses checks every process name.
func ValidateProcesses(processes []string) error {
	if len(processes) == 0 {
		return ErrNoProcesses
	}

	for _, process := range processes {
		if !processNameRegex.MatchString(process) {
			return fmt.Errorf("%w: %q", ErrInvalidProcessName, process)
		}
	}

	return nil
}

// Command renders the shell command that reports "<name> <cpu> <memKiB>" for
// each running process. Processes that are not running are skipped.
func Command(processes []string) (string, error) {
	err := ValidateProcesses(processes)
	if err != nil {
		return "", err
	}

	return "for p in " + strings.Join(processes, " ") + "; do " +
		`pid=$(pgrep -o -x "$p") || continue; ` +
		`cpu=$(top -b -n 2 -d 0.2 -p "$pid" | tail -1 | awk '{print $9}'); ` +
		`mem=$(pmap -X "$pid" | tail -n 1 | awk '{print $2}'); ` +
		`echo "$p $cpu $mem"; done`, nil
}

// Parse reads sampler output. Blank lines are ignored.
func Parse(output string) ([]ProcessSample, error) {
	var samples []ProcessSample

	for line := range strings.Lines(output) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedSample, strings.TrimSpace(line))
		}

		cpu, err := strconv.ParseFloat(strings.ReplaceAll(fields[1], ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cpu %q: %w", ErrMalformedSample, fields[1], err)
		}

		memory, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: memory %q: %w", ErrMalformedSample, fields[2], err)
		}

		samples = append(samples, ProcessSample{
			Process:    fields[0],
			CPUPercent: cpu,
			MemoryKiB:  memory,
		})
	}

	return samples, nil
}
