package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/devantler-tech/scalebench/pkg/apis/benchmark/v1alpha1"
)

const (
	// descriptorSuffix is appended to the model name to form the descriptor file name.
	descriptorSuffix = "_cluster.json"
	dirPermissions   = 0o700
	filePermissions  = 0o600
)

// ErrDescriptorNotFound is returned when no descriptor exists at the given path.
var ErrDescriptorNotFound = errors.New("cluster descriptor not found")

// ErrInvalidDescriptor is returned when a descriptor cannot be decoded or fails validation.
var ErrInvalidDescriptor = errors.New("invalid cluster descriptor")

// DescriptorPath returns the descriptor path for model inside dir.
func DescriptorPath(dir, model string) (string, error) {
	err := v1alpha1.ValidateModelName(model)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, model+descriptorSuffix), nil
}

// SaveDescriptor validates and writes the descriptor into dir, returning its path.
func SaveDescriptor(dir string, descriptor *v1alpha1.Descriptor) (string, error) {
	err := descriptor.Validate()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	path, err := DescriptorPath(dir, descriptor.Model)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(filepath.Dir(path), dirPermissions)
	if err != nil {
		return "", fmt.Errorf("failed to create descriptor directory: %w", err)
	}

	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal cluster descriptor: %w", err)
	}

	err = os.WriteFile(path, append(data, '\n'), filePermissions)
	if err != nil {
		return "", fmt.Errorf("failed to write cluster descriptor: %w", err)
	}

	return path, nil
}

// LoadDescriptor reads and validates the descriptor at path.
// It returns ErrDescriptorNotFound when the file does not exist.
func LoadDescriptor(path string) (*v1alpha1.Descriptor, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path given", ErrDescriptorNotFound)
	}

	//nolint:gosec // the descriptor path is an explicit operator input
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDescriptorNotFound, path)
		}

		return nil, fmt.Errorf("failed to read cluster descriptor: %w", err)
	}

	var descriptor v1alpha1.Descriptor

	err = json.Unmarshal(data, &descriptor)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, path, err)
	}

	err = descriptor.Validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDescriptor, path, err)
	}

	return &descriptor, nil
}

// DeleteDescriptor removes the descriptor for model inside dir.
// A missing descriptor is not an error.
func DeleteDescriptor(dir, model string) error {
	path, err := DescriptorPath(dir, model)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete cluster descriptor: %w", err)
	}

	return nil
}
