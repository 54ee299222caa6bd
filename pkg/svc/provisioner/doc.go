// Package provisioner provides cluster provisioning services.
//
//   - cluster: the provisioner contract and factory
//   - cluster/microk8s: MicroK8s on juju-managed machines
package provisioner
