// Package semver orders tool version strings. Release versions go through
// Masterminds/semver; anything it rejects falls back to numeric components.
package semver

import (
	"sort"
	"strconv"
	"strings"

	msemver "github.com/Masterminds/semver/v3"
)

// SemVer is a version string with its numeric components.
type SemVer struct {
	Original string // Original string (e.g., "v1.2.3" or "15.0.0-rc3")
	Parts    []int  // Parsed numeric parts [1, 2, 3]
	parsed   *msemver.Version
}

// Parse parses a version string. It never fails; unparsable components count as 0.
func Parse(v string) SemVer {
	sv := SemVer{Original: v, Parts: parseParts(v)}
	if parsed, err := msemver.NewVersion(v); err == nil {
		sv.parsed = parsed
	}
	return sv
}

func parseParts(v string) []int {
	v = strings.TrimPrefix(v, "v")
	var nums []int
	for _, part := range strings.Split(v, ".") {
		// "3-beta" -> 3
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		n, _ := strconv.Atoi(part[:end])
		nums = append(nums, n)
	}
	return nums
}

// String returns the original version string
func (v SemVer) String() string {
	return v.Original
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other.
// A pre-release sorts below its final release (15.0.0-rc3 < 15.0.0).
func (v SemVer) Compare(other SemVer) int {
	if v.parsed != nil && other.parsed != nil {
		return v.parsed.Compare(other.parsed)
	}

	maxLen := max(len(v.Parts), len(other.Parts))
	for i := 0; i < maxLen; i++ {
		vPart, otherPart := 0, 0
		if i < len(v.Parts) {
			vPart = v.Parts[i]
		}
		if i < len(other.Parts) {
			otherPart = other.Parts[i]
		}
		if vPart < otherPart {
			return -1
		}
		if vPart > otherPart {
			return 1
		}
	}
	return 0
}

// SemVers is a slice of SemVer that implements sort.Interface
type SemVers []SemVer

func (v SemVers) Len() int           { return len(v) }
func (v SemVers) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }
func (v SemVers) Less(i, j int) bool { return v[i].Compare(v[j]) < 0 }

// Compare compares two version strings.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// LessOrEqual reports whether v <= limit.
func LessOrEqual(v, limit string) bool {
	return Compare(v, limit) <= 0
}

// SortDescending sorts versions newest first, in place.
func SortDescending(versions []string) {
	parsed := make(SemVers, len(versions))
	for i, v := range versions {
		parsed[i] = Parse(v)
	}
	sort.Stable(sort.Reverse(parsed))
	for i, v := range parsed {
		versions[i] = v.Original
	}
}

// Major returns the first numeric component of v, or -1 when v has none.
// A Debian epoch ("4:11.2.0-1") is skipped.
func Major(v string) int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if _, rest, ok := strings.Cut(v, ":"); ok {
		v = rest
	}
	if v == "" || v[0] < '0' || v[0] > '9' {
		return -1
	}
	return parseParts(v)[0]
}
