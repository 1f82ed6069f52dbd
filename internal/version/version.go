// Package version derives the display version of a plugin release from the
// release tag or, for canary builds, from the project's package metadata.
package version

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// CanaryMarker separates the base package version from the build timestamp in
// canary version strings, e.g. "0.7.0post.1690000000".
const CanaryMarker = "post."

type packageMetadata struct {
	Version string `json:"version"`
}

// FromTag maps a release tag of the form v<semver> to its display version by
// stripping the leading v. Tags that are not valid semver are rejected.
func FromTag(tag string) (string, error) {
	if !strings.HasPrefix(tag, "v") {
		return "", fmt.Errorf("tag %q does not start with v", tag)
	}
	v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil {
		return "", fmt.Errorf("tag %q is not a valid semver version: %w", tag, err)
	}
	return v.String(), nil
}

// Canary builds the rolling-channel version from the semantic version declared
// in the package metadata file and the given timestamp. The result sorts after
// the base version and is unique per second of invocation.
func Canary(packageFile string, now time.Time) (string, error) {
	raw, err := os.ReadFile(packageFile)
	if err != nil {
		return "", fmt.Errorf("failed to read package metadata: %w", err)
	}
	var meta packageMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return "", fmt.Errorf("failed to parse package metadata %s: %w", packageFile, err)
	}
	base, err := semver.NewVersion(meta.Version)
	if err != nil {
		return "", fmt.Errorf("package metadata version %q is not a valid semver version: %w", meta.Version, err)
	}
	return fmt.Sprintf("%s%s%d", base.String(), CanaryMarker, now.Unix()), nil
}
