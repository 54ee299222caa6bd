// Package cmd provides the command-line interface for scalebench.
//
// This package contains the root, bootstrap, benchmark and version commands and
// delegates to subcommand packages:
//   - cluster: MicroK8s cluster provisioning and teardown through juju
//   - experiment: timed benchmark runs against a provisioned cluster
package cmd
