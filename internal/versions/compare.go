package versions

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsNewerVersion reports whether newVersion is strictly greater than oldVersion.
// It uses semantic versioning for comparison when both strings are valid semver,
// and falls back to lexicographic string comparison otherwise.
func IsNewerVersion(newVersion, oldVersion string) bool {
	newSemver, errNew := semver.NewVersion(newVersion)
	oldSemver, errOld := semver.NewVersion(oldVersion)

	if errNew != nil || errOld != nil {
		// Fallback to string comparison if semver parsing fails
		return newVersion > oldVersion
	}

	return newSemver.GreaterThan(oldSemver)
}

// ImageTagAtLeast reports whether a container image tag satisfies a minimum
// version. Variant suffixes such as "-alpine" or "-bookworm" are stripped
// before comparison. Tags that carry no usable version information ("latest",
// "stable", empty, or non-semver) are assumed to satisfy the minimum.
func ImageTagAtLeast(tag, minimum string) bool {
	base := tag
	if i := strings.IndexByte(base, '-'); i >= 0 {
		base = base[:i]
	}

	tagVer, err := semver.NewVersion(base)
	if err != nil {
		return true
	}
	minVer, err := semver.NewVersion(minimum)
	if err != nil {
		return true
	}
	return !tagVer.LessThan(minVer)
}
