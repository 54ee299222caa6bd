package k8s

import (
	"regexp"
	"strings"
)

// maxLabelLength is the DNS-1123 label limit.
const maxLabelLength = 63

const shortRunIDLength = 8

// NamespacePrefix prefixes every scratch namespace.
const NamespacePrefix = "scalebench-"

var nonLabelRun = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName lowercases value and replaces every run of characters outside
// [a-z0-9] with a single hyphen. The result is trimmed to a valid DNS-1123
// label and may be empty.
func SanitizeName(value string) string {
	name := nonLabelRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	name = strings.Trim(name, "-")

	if len(name) > maxLabelLength {
		name = strings.TrimRight(name[:maxLabelLength], "-")
	}

	return name
}

// ShortRunID returns the first eight characters of runID, lowercased and
// with hyphens removed.
func ShortRunID(runID string) string {
	short := strings.ReplaceAll(strings.ToLower(runID), "-", "")
	if len(short) > shortRunIDLength {
		short = short[:shortRunIDLength]
	}

	return short
}

// ScratchNamespace returns the namespace name for a run: the prefix plus the
// short run id.
func ScratchNamespace(runID string) string {
	return NamespacePrefix + ShortRunID(runID)
}
