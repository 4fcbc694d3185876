// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// stack that belongs to an internal package.
func InternalPaths(stack []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)

		_, rest, ok := strings.Cut(line, "/internal/")
		if !ok {
			continue
		}
		loc, _, _ := strings.Cut(rest, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		paths = append(paths, "internal/"+loc)
	}
	return paths
}
