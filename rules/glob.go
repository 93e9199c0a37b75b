package rules

import (
	"regexp"
	"strings"
)

// Matches reports whether a path matches any of the rule's globs. A rule
// with no globs applies everywhere.
func (r *Rule) Matches(path string) bool {
	if len(r.Globs) == 0 {
		return true
	}
	path = strings.ReplaceAll(path, "\\", "/")
	for _, g := range r.Globs {
		re, err := globToRegexp(g)
		if err != nil {
			continue
		}
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// globToRegexp translates a glob pattern into an anchored regexp.
// "**" crosses directory separators, "*" and "?" do not.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(^|/)")

	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				i++
				if i+1 < len(glob) && glob[i+1] == '/' {
					// "**/" crosses any number of directories, including none
					b.WriteString("(.*/)?")
					i++
				} else {
					b.WriteString(".*")
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}
