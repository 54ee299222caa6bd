// Package v1alpha1 defines the data model shared by the scalebench commands:
// the cluster descriptor written by provisioning, the settings assembled at
// startup and the enums accepted on the command line.
package v1alpha1
