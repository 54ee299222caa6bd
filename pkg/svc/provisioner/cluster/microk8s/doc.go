// Package microk8sprovisioner provisions MicroK8s clusters on machines deployed through juju.
//
// Creation runs as an ordered pipeline: create the model, deploy machines,
// wait for them, optionally configure a proxy, install the snap, register
// hosts, optionally configure registry credentials, wait for MicroK8s, join
// nodes and finally write the cluster descriptor.
package microk8sprovisioner
