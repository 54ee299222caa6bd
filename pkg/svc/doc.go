// Package svc provides the service layer between the commands and the juju,
// SSH and Kubernetes clients.
//
// Subpackages:
//   - bootstrapper: cloud and controller registration
//   - experiment: experiment runs and their output
//   - metrics: sampling command, CSV sink and Prometheus snapshot
//   - pipeline: ordered fallible steps
//   - provisioner: MicroK8s cluster provisioning
//   - remote: command execution on cluster nodes
//   - state: descriptor persistence
package svc
