// Package experiment runs a workload against a provisioned cluster and samples
// control-plane daemon usage on every control-plane node while it runs.
//
// A run loads the cluster descriptor, prepares addons and a kubeconfig, creates
// a scratch namespace, applies the workloads, waits for them to become ready and
// then samples at a fixed interval until the duration elapses. The namespace is
// torn down on every exit path.
package experiment
