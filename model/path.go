package model

import (
	"slices"
	"strings"
)

// CratePath locates a crate within the source tree as an ordered sequence of
// path segments. Directory names come first, the final segment is the crate's
// base filename without the .crate extension.
type CratePath []string

// String joins the segments with "/"; used as a map key.
func (p CratePath) String() string {
	return strings.Join(p, "/")
}

// Display joins the segments with " / " for human-readable output.
func (p CratePath) Display() string {
	return strings.Join(p, " / ")
}

// Last returns the final segment, or "" for an empty path.
func (p CratePath) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path with the final segment removed.
func (p CratePath) Parent() CratePath {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// IsStrictPrefixOf reports whether p is a strict prefix of other, i.e. other
// is longer and shares all of p's segments in order.
func (p CratePath) IsStrictPrefixOf(other CratePath) bool {
	if len(other) <= len(p) {
		return false
	}
	return slices.Equal(other[:len(p)], p)
}

// Compare orders paths lexicographically on the segment sequence.
func (p CratePath) Compare(other CratePath) int {
	return slices.Compare(p, other)
}
