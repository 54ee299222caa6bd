// Package state persists the cluster descriptor written by provisioning.
//
// The descriptor is stored as JSON in <dir>/<model>_cluster.json and is the only
// state shared between cluster creation and experiment runs.
package state
