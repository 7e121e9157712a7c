package version

import (
	"fmt"
	"sort"
	"strings"

	hashiver "github.com/hashicorp/go-version"
)

// Version pairs the name a release is known by upstream with its parsed
// semantics. Name is what build commands and state files see; ordering and
// stability checks go through the parsed form, so "v1.2.0" and "1.2.0"
// compare equal.
type Version struct {
	// Name is the normalized version string, tag prefix stripped.
	Name string
	// Tag is the original git tag the version came from. Empty when the
	// version was read from a tracked file rather than a tag.
	Tag string

	parsed *hashiver.Version
}

// Parse builds a Version from a plain version string.
func Parse(raw string) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Version{}, fmt.Errorf("version: empty version string")
	}
	parsed, err := hashiver.NewVersion(trimmed)
	if err != nil {
		return Version{}, fmt.Errorf("version: parse %q: %w", trimmed, err)
	}
	return Version{Name: trimmed, parsed: parsed}, nil
}

// ParseTag builds a Version from a git tag, stripping prefix from the name.
// The original tag is preserved for checkout.
func ParseTag(tag string, prefix string) (Version, error) {
	name := strings.TrimSpace(tag)
	if prefix != "" {
		name = strings.TrimPrefix(name, prefix)
	}
	v, err := Parse(name)
	if err != nil {
		return Version{}, err
	}
	v.Tag = strings.TrimSpace(tag)
	return v, nil
}

// Stable reports whether the version carries no prerelease segment
// (alpha, beta, rc and friends).
func (v Version) Stable() bool {
	return v.parsed.Prerelease() == ""
}

// Compare returns -1, 0 or 1 by parsed version semantics.
func (v Version) Compare(other Version) int {
	return v.parsed.Compare(other.parsed)
}

func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// AtLeast reports whether v >= floor.
func (v Version) AtLeast(floor Version) bool {
	return v.Compare(floor) >= 0
}

func (v Version) String() string {
	return v.Name
}

// Sort orders versions ascending in place.
func Sort(versions []Version) {
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})
}
