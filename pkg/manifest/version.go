// pkg/manifest/version.go
package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionRe = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)([0-9A-Za-z.+-]*)$`)

// Version is a parsed release version: dotted numeric segments plus an
// optional pre-release/build suffix compared lexically.
type Version struct {
	Release []int
	Suffix  string
	raw     string
}

// ParseVersion parses a dotted version string such as "1.24.0" or "2.0rc1".
func ParseVersion(s string) (Version, error) {
	groups := versionRe.FindStringSubmatch(s)
	if groups == nil {
		return Version{}, fmt.Errorf("malformed version %q", s)
	}
	v := Version{Suffix: groups[2], raw: s}
	for _, part := range strings.Split(groups[1], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("malformed version %q", s)
		}
		v.Release = append(v.Release, n)
	}
	return v, nil
}

func (v Version) String() string { return v.raw }

// Compare returns -1, 0 or 1 ordering v against o. Missing release segments
// compare as zero, so 1.0 == 1.0.0. A version with a suffix orders before
// the same release without one (pre-release semantics).
func (v Version) Compare(o Version) int {
	n := len(v.Release)
	if len(o.Release) > n {
		n = len(o.Release)
	}
	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.Release) {
			a = v.Release[i]
		}
		if i < len(o.Release) {
			b = o.Release[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	switch {
	case v.Suffix == o.Suffix:
		return 0
	case v.Suffix == "":
		return 1
	case o.Suffix == "":
		return -1
	case v.Suffix < o.Suffix:
		return -1
	}
	return 1
}

// Match reports whether the concrete version satisfies the constraint.
func (c Constraint) Match(v Version) bool {
	want, err := ParseVersion(c.Version)
	if err != nil {
		return false
	}
	switch c.Op {
	case OpEqual:
		return v.Compare(want) == 0
	case OpNotEqual:
		return v.Compare(want) != 0
	case OpGreaterEqual:
		return v.Compare(want) >= 0
	case OpLessEqual:
		return v.Compare(want) <= 0
	case OpGreater:
		return v.Compare(want) > 0
	case OpLess:
		return v.Compare(want) < 0
	case OpCompatible:
		// ~=X.Y.Z means >=X.Y.Z with the leading segments fixed:
		// ~=1.4.2 accepts 1.4.x for x >= 2 but not 1.5.
		if len(want.Release) < 2 {
			return false
		}
		if v.Compare(want) < 0 {
			return false
		}
		for i := 0; i < len(want.Release)-1; i++ {
			got := 0
			if i < len(v.Release) {
				got = v.Release[i]
			}
			if got != want.Release[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Matches reports whether the given concrete version satisfies every
// constraint of the requirement. Source-control references match nothing.
func (r *Requirement) Matches(version string) (bool, error) {
	if r.Source != nil {
		return false, fmt.Errorf("%s is a source reference, not a versioned requirement", r.Name)
	}
	v, err := ParseVersion(version)
	if err != nil {
		return false, err
	}
	for _, c := range r.Constraints {
		if !c.Match(v) {
			return false, nil
		}
	}
	return true, nil
}
