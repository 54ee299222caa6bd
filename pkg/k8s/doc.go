// Package k8s provides Kubernetes client configuration and the namespace and
// manifest helpers used by experiment runs.
//
// For readiness polling, see the [readiness] sub-package.
//
// Key features:
//   - REST config and client creation from kubeconfig files (BuildRESTConfig, NewClientset, NewDynamicClient)
//   - Per-model kubeconfig files (ModelKubeconfigPath, WriteKubeconfig, RemoveKubeconfig)
//   - Scratch namespaces (CreateNamespace, DeleteNamespace)
//   - Manifest decoding and namespaced apply (DecodeManifests, Applier)
package k8s
