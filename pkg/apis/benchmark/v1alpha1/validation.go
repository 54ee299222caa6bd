package v1alpha1

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// modelNameRegex matches DNS-1123 labels: lowercase alphanumeric with optional hyphens.
var modelNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// ModelNameMaxLength is the maximum length for a model name.
const ModelNameMaxLength = 63

// latestTrack is the snap track that follows the newest release.
const latestTrack = "latest"

// ValidateModelName validates that a model name is DNS-1123 compliant.
// The model name doubles as the descriptor file stem and the kubeconfig suffix.
func ValidateModelName(name string) error {
	if len(name) > ModelNameMaxLength {
		return fmt.Errorf(
			"%w: %q exceeds max %d characters (got %d)",
			ErrModelNameTooLong, name, ModelNameMaxLength, len(name),
		)
	}

	if !modelNameRegex.MatchString(name) {
		return fmt.Errorf(
			"%w: %q must be DNS-1123 compliant "+
				"(lowercase letters, numbers, and hyphens; must start with a letter; "+
				"must not end with a hyphen)",
			ErrModelNameInvalid, name,
		)
	}

	return nil
}

// ValidRisks returns the snap risk levels a channel may name.
func ValidRisks() []string {
	return []string{"stable", "candidate", "beta", "edge"}
}

// ValidateChannel checks a snap channel of the form <track>/<risk>, where the
// track is "latest" or a <major>.<minor> version.
func ValidateChannel(channel string) error {
	track, risk, found := strings.Cut(channel, "/")
	if !found || track == "" || risk == "" {
		return fmt.Errorf("%w: %q must look like 1.24/stable", ErrInvalidChannel, channel)
	}

	if !slices.Contains(ValidRisks(), risk) {
		return fmt.Errorf(
			"%w: %q has unknown risk %q (valid options: %s)",
			ErrInvalidChannel, channel, risk, strings.Join(ValidRisks(), ", "),
		)
	}

	if track == latestTrack {
		return nil
	}

	_, err := semver.StrictNewVersion(track + ".0")
	if err != nil {
		return fmt.Errorf("%w: %q has unparsable track %q: %w", ErrInvalidChannel, channel, track, err)
	}

	return nil
}

// ValidateProxy checks that proxy is empty or an absolute http(s) URL.
func ValidateProxy(proxy string) error {
	if proxy == "" {
		return nil
	}

	parsed, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q must be an http(s) URL with a host", ErrInvalidProxy, proxy)
	}

	return nil
}

// ValidateTopology checks a requested node count and control-plane count.
func ValidateTopology(nodes, controlPlane int) error {
	if nodes < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidNodeCount, nodes)
	}

	if controlPlane < 1 || controlPlane > nodes {
		return fmt.Errorf(
			"%w: got %d for %d nodes",
			ErrInvalidControlPlaneCount, controlPlane, nodes,
		)
	}

	return nil
}
