// Package version implements placement API microversions: parsing,
// comparison, and the client-side requirement check applied before any
// network call.
package version

import (
	"fmt"
	"strconv"
	"strings"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
)

// Version is a placement API microversion, e.g. 1.5.
type Version struct {
	Major int
	Minor int
}

var (
	// Min is the lowest microversion the service speaks.
	Min = Version{1, 0}

	// Max is the highest microversion this codebase understands.
	Max = Version{1, 10}
)

// Parse parses a "major.minor" microversion string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid microversion %q: expected major.minor", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid microversion %q: %w", s, err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid microversion %q: %w", s, err)
	}
	if major < 0 || minor < 0 {
		return Version{}, fmt.Errorf("invalid microversion %q: negative component", s)
	}
	return Version{Major: major, Minor: minor}, nil
}

// MustParse parses s and panics on error. For use with constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Cmp returns -1, 0 or 1 depending on whether v is lower than, equal to, or
// higher than o.
func (v Version) Cmp(o Version) int {
	if v.Major != o.Major {
		if v.Major < o.Major {
			return -1
		}
		return 1
	}
	if v.Minor != o.Minor {
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool { return v.Cmp(o) >= 0 }

// CheckRequirement fails when the active version is below the minimum a
// gated operation needs. The message format is uniform across all gated
// operations.
func CheckRequirement(active, minimum Version) error {
	if active.AtLeast(minimum) {
		return nil
	}
	return placementerrors.Newf(placementerrors.ErrCodeVersionRequirement,
		"Operation or argument is not supported with version %s; requires at least version %s",
		active, minimum)
}
