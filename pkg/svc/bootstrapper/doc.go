// Package bootstrapper registers an OpenStack cloud and credential with juju
// and bootstraps a controller on it.
package bootstrapper
