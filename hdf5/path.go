package hdf5

import (
	"fmt"
	"path"
	"strings"
)

// absPath makes p absolute and removes empty, "." and ".." elements.
func absPath(p string) string {
	return path.Clean("/" + p)
}

// elements splits p into link names.
func elements(p string) []string {
	p = strings.Trim(absPath(p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// SplitAttrPath splits "/object@name" at its last '@'.
func SplitAttrPath(p string) (object, name string, err error) {
	i := strings.LastIndexByte(p, '@')
	if i < 0 || i == len(p)-1 {
		return "", "", fmt.Errorf("%w: %q is not of the form /object@name", ErrInvalidPath, p)
	}
	return absPath(p[:i]), p[i+1:], nil
}

// AttrPath is the inverse of SplitAttrPath.
func AttrPath(object, name string) string {
	if o := absPath(object); o != "/" {
		return o + "@" + name
	}
	return "/@" + name
}
