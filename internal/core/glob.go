package core

import (
	"path"
	"path/filepath"
	"strings"
)

// MatchGlob reports whether name matches pattern. Both use "/" separators
// after normalisation. A "**" segment matches zero or more path segments;
// other segments follow path.Match. A pattern without "/" is matched against
// the base name only. Malformed patterns never match.
func MatchGlob(pattern, name string) bool {
	name = filepath.ToSlash(filepath.Clean(name))
	pattern = filepath.ToSlash(pattern)

	if !strings.Contains(pattern, "/") {
		ok, err := path.Match(pattern, path.Base(name))
		return err == nil && ok
	}

	return matchSegments(splitPath(pattern), splitPath(name))
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "./")
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" && seg != "." {
			out = append(out, seg)
		}
	}
	return out
}

func matchSegments(pat, name []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], name[0])
		if err != nil || !ok {
			return false
		}
		pat, name = pat[1:], name[1:]
	}
	return len(name) == 0
}

// globSpecificity ranks patterns: more literal characters first.
func globSpecificity(pattern string) int {
	n := 0
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', ']', '/':
		default:
			n++
		}
	}
	return n
}
