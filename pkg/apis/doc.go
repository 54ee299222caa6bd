// Package apis holds the versioned data types shared by scalebench commands.
//
//   - benchmark/v1alpha1: the cluster descriptor, settings and their validation
package apis
