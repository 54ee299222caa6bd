package bootstrapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/devantler-tech/scalebench/pkg/svc/pipeline"
	"github.com/devantler-tech/scalebench/pkg/utils/timer"
)

const (
	// DefaultCloud is the name the OpenStack cloud is registered under.
	DefaultCloud = "openstack"
	// DefaultController is the name of the bootstrapped controller.
	DefaultController = "scalebench"
)

// JujuCloudAPI is the subset of *juju.Client used to bootstrap.
type JujuCloudAPI interface {
	AddCloud(ctx context.Context, cloud, definitionFile string) error
	AddCredential(ctx context.Context, cloud, credentialsFile string) error
	Bootstrap(ctx context.Context, cloudRegion, controller string) error
}

// Options configures a bootstrap.
type Options struct {
	Cloud       string
	Controller  string
	Credentials OpenStackCredentials
	// TempDir holds the rendered YAML files. Empty uses the system default.
	TempDir string
}

// Bootstrapper runs the bootstrap pipeline.
type Bootstrapper struct {
	juju  JujuCloudAPI
	out   io.Writer
	timer timer.Timer
}

// New creates a Bootstrapper reporting progress to out.
func New(client JujuCloudAPI, out io.Writer) *Bootstrapper {
	if out == nil {
		out = io.Discard
	}

	return &Bootstrapper{juju: client, out: out}
}

// WithTimer adds per-step timing to progress output.
func (b *Bootstrapper) WithTimer(tmr timer.Timer) *Bootstrapper {
	b.timer = tmr

	return b
}

// Bootstrap registers the cloud and credential and bootstraps the controller.
// The rendered files are removed on every exit path.
func (b *Bootstrapper) Bootstrap(ctx context.Context, opts Options) (err error) {
	if opts.Cloud == "" {
		opts.Cloud = DefaultCloud
	}

	if opts.Controller == "" {
		opts.Controller = DefaultController
	}

	err = opts.Credentials.Validate()
	if err != nil {
		return err
	}

	cloudData, err := CloudYAML(opts.Cloud, opts.Credentials)
	if err != nil {
		return err
	}

	credentialData, err := CredentialsYAML(opts.Cloud, opts.Credentials)
	if err != nil {
		return err
	}

	var files []string

	defer func() {
		for _, file := range files {
			removeErr := os.Remove(file)
			if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove %s: %w", file, removeErr))
			}
		}
	}()

	steps := pipeline.New(b.out,
		pipeline.Step{
			Name: "register cloud " + opts.Cloud,
			Run: func(ctx context.Context) error {
				path, writeErr := writeTemp(opts.TempDir, "clouds-*.yaml", cloudData)
				if writeErr != nil {
					return writeErr
				}

				files = append(files, path)

				return b.juju.AddCloud(ctx, opts.Cloud, path)
			},
		},
		pipeline.Step{
			Name: "register credential",
			Run: func(ctx context.Context) error {
				path, writeErr := writeTemp(opts.TempDir, "credentials-*.yaml", credentialData)
				if writeErr != nil {
					return writeErr
				}

				files = append(files, path)

				return b.juju.AddCredential(ctx, opts.Cloud, path)
			},
		},
		pipeline.Step{
			Name: "bootstrap controller " + opts.Controller,
			Run: func(ctx context.Context) error {
				return b.juju.Bootstrap(ctx, opts.Cloud+"/"+opts.Credentials.Region, opts.Controller)
			},
		},
	)
	if b.timer != nil {
		steps.WithTimer(b.timer)
	}

	_, err = steps.Run(ctx)

	return err
}

// writeTemp writes data to a new owner-only file in dir.
func writeTemp(dir, pattern string, data []byte) (string, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	err = errors.Join(err, closeErr)
	if err != nil {
		_ = os.Remove(file.Name())

		return "", fmt.Errorf("failed to write %s: %w", file.Name(), err)
	}

	return file.Name(), nil
}
