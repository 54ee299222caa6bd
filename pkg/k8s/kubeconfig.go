package k8s

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/tools/clientcmd"
)

const (
	kubeconfigFileMode = 0o600
	kubeconfigDirMode  = 0o700
)

// ModelKubeconfigPath returns ~/.kube/config_<model>.
func ModelKubeconfigPath(model string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, ".kube", "config_"+model), nil
}

// WriteKubeconfig validates content as a kubeconfig and writes it to path with
// owner-only permissions, replacing any previous file.
func WriteKubeconfig(path string, content []byte) error {
	if path == "" {
		return ErrKubeconfigPathEmpty
	}

	config, err := clientcmd.Load(content)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKubeconfig, err)
	}

	if len(config.Clusters) == 0 {
		return fmt.Errorf("%w: no clusters defined", ErrInvalidKubeconfig)
	}

	err = os.MkdirAll(filepath.Dir(path), kubeconfigDirMode)
	if err != nil {
		return fmt.Errorf("failed to create kubeconfig directory: %w", err)
	}

	err = os.WriteFile(path, content, kubeconfigFileMode)
	if err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}

	// WriteFile keeps the mode of an existing file.
	err = os.Chmod(path, kubeconfigFileMode)
	if err != nil {
		return fmt.Errorf("failed to restrict kubeconfig permissions: %w", err)
	}

	return nil
}

// RemoveKubeconfig deletes the kubeconfig at path. A missing file is not an error.
func RemoveKubeconfig(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove kubeconfig: %w", err)
	}

	return nil
}
