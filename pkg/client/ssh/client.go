// Package ssh runs commands on cluster machines over SSH with key authentication.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/devantler-tech/scalebench/pkg/cmd/runner"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	// DefaultPort is the SSH server port.
	DefaultPort = 22
	// DefaultUser is the login user on Juju ubuntu machines.
	DefaultUser = "ubuntu"
	// DefaultDialTimeout bounds the TCP connect and handshake.
	DefaultDialTimeout = 15 * time.Second
)

// ErrNoAuthMethod is returned when no private key is configured.
var ErrNoAuthMethod = errors.New("no ssh private key configured")

// Config describes how to reach machines.
type Config struct {
	User           string
	KeyPath        string
	Port           int
	KnownHostsPath string
	// InsecureIgnoreHostKey skips host key verification.
	InsecureIgnoreHostKey bool
	DialTimeout           time.Duration
}

// DefaultKeyPath returns ~/.ssh/id_rsa, the key Juju injects by default.
func DefaultKeyPath() string {
	home, _ := os.UserHomeDir()

	return filepath.Join(home, ".ssh", "id_rsa")
}

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() string {
	home, _ := os.UserHomeDir()

	return filepath.Join(home, ".ssh", "known_hosts")
}

// ClientConfig builds the x/crypto client configuration.
func (c Config) ClientConfig() (*ssh.ClientConfig, error) {
	if c.KeyPath == "" {
		return nil, ErrNoAuthMethod
	}

	auth, err := publicKeyAuth(c.KeyPath)
	if err != nil {
		return nil, err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in via InsecureIgnoreHostKey
	if !c.InsecureIgnoreHostKey {
		knownHostsPath := c.KnownHostsPath
		if knownHostsPath == "" {
			knownHostsPath = DefaultKnownHostsPath()
		}

		hostKeyCallback, err = knownhosts.New(knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", knownHostsPath, err)
		}
	}

	user := c.User
	if user == "" {
		user = DefaultUser
	}

	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

func publicKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	//nolint:gosec // key path is operator input
	buffer, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key %s: %w", keyPath, err)
	}

	return ssh.PublicKeys(signer), nil
}

// Executor runs commands on hosts, reusing one connection per host.
type Executor struct {
	config *ssh.ClientConfig
	port   int

	mu      sync.Mutex
	clients map[string]*ssh.Client
}

// NewExecutor creates an Executor from cfg.
func NewExecutor(cfg Config) (*Executor, error) {
	clientConfig, err := cfg.ClientConfig()
	if err != nil {
		return nil, err
	}

	port := cfg.Port
	if port <= 0 {
		port = DefaultPort
	}

	return &Executor{
		config:  clientConfig,
		port:    port,
		clients: make(map[string]*ssh.Client),
	}, nil
}

// Exec runs command on host and returns its output.
// A non-zero exit status is returned as a *runner.ExitError.
func (e *Executor) Exec(ctx context.Context, host, command string) (runner.CommandResult, error) {
	client, err := e.client(ctx, host)
	if err != nil {
		return runner.CommandResult{}, err
	}

	session, err := client.NewSession()
	if err != nil {
		e.forget(host)

		return runner.CommandResult{}, fmt.Errorf("failed to open ssh session on %s: %w", host, err)
	}

	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer

	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)

	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)

		return runner.CommandResult{}, fmt.Errorf("ssh %s: %w", host, ctx.Err())
	case runErr := <-done:
		result := runner.CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}

		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()

			return result, &runner.ExitError{
				Command:  "ssh " + host + " " + command,
				ExitCode: result.ExitCode,
				Stderr:   strings.TrimSpace(result.Stderr),
				Err:      runErr,
			}
		}

		if runErr != nil {
			return result, fmt.Errorf("ssh %s: %w", host, runErr)
		}

		return result, nil
	}
}

// Close closes every cached connection.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error

	for host, client := range e.clients {
		err := client.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s: %w", host, err))
		}

		delete(e.clients, host)
	}

	return errors.Join(errs...)
}

func (e *Executor) client(ctx context.Context, host string) (*ssh.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if client, ok := e.clients[host]; ok {
		return client, nil
	}

	address := net.JoinHostPort(host, strconv.Itoa(e.port))

	dialer := net.Dialer{Timeout: e.config.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}

	sshConn, channels, requests, err := ssh.NewClientConn(conn, address, e.config)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("ssh handshake with %s: %w", address, err)
	}

	client := ssh.NewClient(sshConn, channels, requests)
	e.clients[host] = client

	return client, nil
}

func (e *Executor) forget(host string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if client, ok := e.clients[host]; ok {
		_ = client.Close()

		delete(e.clients, host)
	}
}
