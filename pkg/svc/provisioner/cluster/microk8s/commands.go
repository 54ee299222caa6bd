package microk8sprovisioner

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// JoinToken is the fixed token registered on the master for joining nodes.
	JoinToken = "microk8sisgreatushouldgiveitatry"
	// JoinTokenTTL keeps the token valid for the lifetime of a benchmark cluster.
	JoinTokenTTL = 5 * 365 * 24 * time.Hour
	// JoinPort is the MicroK8s cluster agent port.
	JoinPort = 25000
	// readyTimeoutSeconds bounds `microk8s status --wait-ready`.
	readyTimeoutSeconds = 600

	podCIDR     = "10.1.0.0/16"
	serviceCIDR = "10.152.183.0/24"

	environmentFile      = "/etc/environment"
	hostsFile            = "/etc/hosts"
	containerdTemplate   = "/var/snap/microk8s/current/args/containerd-template.toml"
	dockerRegistryHost   = "registry-1.docker.io"
	containerdRestartCmd = "snap restart microk8s.daemon-containerd"
)

// RebootCommand restarts a machine.
const RebootCommand = "reboot"

// ProxyCommand appends proxy variables for one unit to /etc/environment.
// no_proxy covers the cluster CIDRs, loopback and the unit itself.
func ProxyCommand(proxy, address, hostname string) string {
	noProxy := strings.Join([]string{podCIDR, serviceCIDR, "127.0.0.1", "localhost", address, hostname}, ",")

	lines := []string{
		"HTTPS_PROXY=" + proxy,
		"HTTP_PROXY=" + proxy,
		"https_proxy=" + proxy,
		"http_proxy=" + proxy,
		"no_proxy=" + noProxy,
		"NO_PROXY=" + noProxy,
	}

	return appendLines(environmentFile, lines)
}

// InstallCommand installs the MicroK8s snap from channel and lets the default user run it.
func InstallCommand(channel string) string {
	return "snap install microk8s --classic --channel=" + channel +
		"; usermod -a -G microk8s ubuntu; chown -f -R ubuntu ~/.kube"
}

// HostsEntry is one /etc/hosts line.
type HostsEntry struct {
	Address  string
	Hostname string
}

// HostsCommand appends every entry to /etc/hosts.
func HostsCommand(entries []HostsEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, entry.Address+"\t"+entry.Hostname)
	}

	return appendLines(hostsFile, lines)
}

// registryAuth holds the docker.io credentials in the containerd template.
type registryAuth struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// RegistryAuth renders the containerd auth section for docker.io.
func RegistryAuth(username, password string) (string, error) {
	encoded, err := toml.Marshal(registryAuth{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to encode registry credentials: %w", err)
	}

	header := `[plugins."io.containerd.grpc.v1.cri".registry.configs."` + dockerRegistryHost + `".auth]`

	return header + "\n" + string(encoded), nil
}

// RegistryCommand adds docker.io credentials to the containerd template and
// restarts containerd so the template is rendered again.
func RegistryCommand(username, password string) (string, error) {
	section, err := RegistryAuth(username, password)
	if err != nil {
		return "", err
	}

	lines := []string{""}
	for line := range strings.Lines(section) {
		lines = append(lines, strings.TrimRight(line, "\n"))
	}

	return appendLines(containerdTemplate, lines) + "; " + containerdRestartCmd, nil
}

// ReadyCommand blocks until MicroK8s reports ready.
func ReadyCommand() string {
	return fmt.Sprintf("microk8s status --wait-ready --timeout %d", readyTimeoutSeconds)
}

// AddNodeCommand registers JoinToken on the master.
func AddNodeCommand() string {
	return fmt.Sprintf("microk8s add-node --token %s --token-ttl %d", JoinToken, int64(JoinTokenTTL.Seconds()))
}

// JoinCommand joins a node to the master, as a worker when worker is set.
func JoinCommand(masterAddress string, worker bool) string {
	command := fmt.Sprintf("microk8s join %s:%d/%s", masterAddress, JoinPort, JoinToken)
	if worker {
		command += " --worker"
	}

	return command
}

// appendLines renders a printf that appends lines to file.
func appendLines(file string, lines []string) string {
	quoted := make([]string, 0, len(lines))
	for _, line := range lines {
		quoted = append(quoted, shellQuote(line))
	}

	return "printf '%s\\n' " + strings.Join(quoted, " ") + " >> " + file
}

// shellQuote wraps value in single quotes for a POSIX shell.
func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
