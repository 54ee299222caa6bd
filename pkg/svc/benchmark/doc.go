// Package benchmark sweeps cluster shapes. For every (control-plane, nodes)
// pair it provisions a cluster in its own juju model, runs one experiment on
// it and destroys the model again.
package benchmark
