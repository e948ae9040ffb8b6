package models

import (
	"fmt"
	"path"
	"strings"
)

// StorePath is a relative, slash-separated path identifying a persisted
// item within a workspace. It is never absolute and never escapes the
// workspace root. Once assigned by a save, it is the stable external
// handle to an item until the item is archived or renamed.
type StorePath string

// NewStorePath validates and normalizes a raw path string into a StorePath.
func NewStorePath(s string) (StorePath, error) {
	cleaned := path.Clean(strings.ReplaceAll(s, "\\", "/"))
	if cleaned == "" || cleaned == "." {
		return "", &InvalidInputError{Msg: "store path must not be empty"}
	}
	if path.IsAbs(cleaned) {
		return "", &InvalidInputError{Msg: fmt.Sprintf("store path must be relative: %s", s)}
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &InvalidInputError{Msg: fmt.Sprintf("store path escapes workspace: %s", s)}
	}
	return StorePath(cleaned), nil
}

func (p StorePath) String() string { return string(p) }

// Dir returns the directory portion of the store path, or "" for a
// top-level path.
func (p StorePath) Dir() string {
	d := path.Dir(string(p))
	if d == "." {
		return ""
	}
	return d
}

// Base returns the filename portion of the store path.
func (p StorePath) Base() string { return path.Base(string(p)) }

// IsUnder reports whether the path lies inside the given directory.
func (p StorePath) IsUnder(dir StorePath) bool {
	return strings.HasPrefix(string(p), string(dir)+"/")
}

// RelativeTo strips the given directory prefix from the path.
func (p StorePath) RelativeTo(dir StorePath) (StorePath, error) {
	if !p.IsUnder(dir) {
		return "", &InvalidInputError{Msg: fmt.Sprintf("path %s is not under %s", p, dir)}
	}
	return NewStorePath(strings.TrimPrefix(string(p), string(dir)+"/"))
}

// Join appends path elements to the store path.
func (p StorePath) Join(elems ...string) (StorePath, error) {
	parts := append([]string{string(p)}, elems...)
	return NewStorePath(path.Join(parts...))
}

// ContainsPath reports whether needle is present in haystack.
func ContainsPath(haystack []StorePath, needle StorePath) bool {
	for _, p := range haystack {
		if p == needle {
			return true
		}
	}
	return false
}

// SubtractPaths returns the elements of paths not present in remove,
// preserving order.
func SubtractPaths(paths, remove []StorePath) []StorePath {
	var out []StorePath
	for _, p := range paths {
		if !ContainsPath(remove, p) {
			out = append(out, p)
		}
	}
	return out
}
