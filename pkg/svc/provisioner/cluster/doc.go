// Package clusterprovisioner defines the cluster provisioner contract and the
// factory that builds provisioners for commands.
//
// Provisioners create a cluster from options, write its descriptor and destroy
// it again by model name. The only implementation provisions MicroK8s on
// machines managed by juju (see the microk8s sub-package).
package clusterprovisioner
