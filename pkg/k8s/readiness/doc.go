// Package readiness provides Kubernetes readiness polling utilities.
//
// Key features:
//   - Generic polling mechanism (PollForReadiness)
//   - API server readiness polling (WaitForAPIServerReady)
//   - Workload readiness in a namespace (WaitForWorkloadsReady)
//   - Namespace deletion (WaitForNamespaceDeleted)
package readiness
