/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package registry

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// semVer is a parsed semantic version.
type semVer struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
}

var semverPattern = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-(.+))?$`)

func parseSemver(version string) (*semVer, error) {
	matches := semverPattern.FindStringSubmatch(version)
	if matches == nil {
		return nil, fmt.Errorf("invalid semver: %s", version)
	}

	sv := &semVer{}
	sv.Major, _ = strconv.Atoi(matches[1])
	if matches[2] != "" {
		sv.Minor, _ = strconv.Atoi(matches[2])
	}
	if matches[3] != "" {
		sv.Patch, _ = strconv.Atoi(matches[3])
	}
	sv.Prerelease = matches[4]

	return sv, nil
}

// compareSemver compares two semver strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Returns 0 if either version cannot be parsed.
func compareSemver(a, b string) int {
	av, err := parseSemver(a)
	if err != nil {
		return 0
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0
	}

	if av.Major != bv.Major {
		if av.Major < bv.Major {
			return -1
		}
		return 1
	}
	if av.Minor != bv.Minor {
		if av.Minor < bv.Minor {
			return -1
		}
		return 1
	}
	if av.Patch != bv.Patch {
		if av.Patch < bv.Patch {
			return -1
		}
		return 1
	}

	// Prerelease versions are lower precedence than release versions
	if av.Prerelease != "" && bv.Prerelease == "" {
		return -1
	}
	if av.Prerelease == "" && bv.Prerelease != "" {
		return 1
	}
	if av.Prerelease != bv.Prerelease {
		if av.Prerelease < bv.Prerelease {
			return -1
		}
		return 1
	}

	return 0
}

// matchVersion finds the best version satisfying an npm-style range.
// Supports empty/*/latest, exact versions, =, caret, and tilde ranges.
func matchVersion(versions []string, versionRange string) string {
	versionRange = strings.TrimSpace(versionRange)
	sort.Slice(versions, func(i, j int) bool {
		return compareSemver(versions[i], versions[j]) < 0
	})

	if versionRange == "latest" || versionRange == "" || versionRange == "*" {
		// Highest non-prerelease version
		for i := len(versions) - 1; i >= 0; i-- {
			sv, err := parseSemver(versions[i])
			if err == nil && sv.Prerelease == "" {
				return versions[i]
			}
		}
		if len(versions) > 0 {
			return versions[len(versions)-1]
		}
		return ""
	}

	if base, ok := strings.CutPrefix(versionRange, "^"); ok {
		return matchCaretRange(versions, base)
	}
	if base, ok := strings.CutPrefix(versionRange, "~"); ok {
		return matchTildeRange(versions, base)
	}
	if exact, ok := strings.CutPrefix(versionRange, "="); ok {
		if slices.Contains(versions, exact) {
			return exact
		}
		return ""
	}

	if slices.Contains(versions, versionRange) {
		return versionRange
	}
	return ""
}

// matchCaretRange matches versions for ^major.minor.patch: changes that do
// not modify the left-most non-zero element.
func matchCaretRange(versions []string, baseVersion string) string {
	base, err := parseSemver(baseVersion)
	if err != nil {
		return ""
	}

	var matches []string
	for _, v := range versions {
		sv, err := parseSemver(v)
		if err != nil || sv.Prerelease != "" {
			continue
		}

		switch {
		case base.Major == 0 && base.Minor == 0:
			if sv.Major == 0 && sv.Minor == 0 && sv.Patch >= base.Patch {
				matches = append(matches, v)
			}
		case base.Major == 0:
			if sv.Major == 0 && sv.Minor == base.Minor && sv.Patch >= base.Patch {
				matches = append(matches, v)
			}
		default:
			if sv.Major == base.Major && compareSemver(v, baseVersion) >= 0 {
				matches = append(matches, v)
			}
		}
	}

	if len(matches) > 0 {
		return matches[len(matches)-1]
	}
	return ""
}

// matchTildeRange matches versions for ~major.minor.patch: patch-level
// changes only.
func matchTildeRange(versions []string, baseVersion string) string {
	base, err := parseSemver(baseVersion)
	if err != nil {
		return ""
	}

	var matches []string
	for _, v := range versions {
		sv, err := parseSemver(v)
		if err != nil || sv.Prerelease != "" {
			continue
		}
		if sv.Major == base.Major && sv.Minor == base.Minor && sv.Patch >= base.Patch {
			matches = append(matches, v)
		}
	}

	if len(matches) > 0 {
		return matches[len(matches)-1]
	}
	return ""
}
