// Package metrics samples per-process CPU and memory on cluster nodes and
// persists the samples as CSV and as a Prometheus text snapshot.
package metrics
