// Package stacktrace trims goroutine dumps down to this module's own frames
// so panic logs stay readable.
package stacktrace

import "strings"

// InternalPaths returns the file:line locations under /internal/ found in a
// raw debug.Stack dump, innermost first, without duplicates.
func InternalPaths(stack []byte) []string {
	var paths []string
	seen := make(map[string]struct{})

	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		loc, _, _ := strings.Cut(line, " ")
		start := strings.Index(loc, "/internal/")
		if start == -1 {
			continue
		}
		loc = loc[start+1:]

		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		paths = append(paths, loc)
	}

	return paths
}
