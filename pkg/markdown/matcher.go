package markdown

import (
	"regexp"
	"strings"
)

// Matcher is an ordered list of case-insensitive title patterns. A title
// matches when any pattern finds a match anywhere in it.
type Matcher []*regexp.Regexp

// Patterns compiles the given expressions into a Matcher. It panics on an
// invalid expression, so it is meant for package-level tables.
func Patterns(exprs ...string) Matcher {
	m := make(Matcher, 0, len(exprs))
	for _, expr := range exprs {
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		m = append(m, regexp.MustCompile(expr))
	}
	return m
}

// Match reports whether title satisfies any pattern
func (m Matcher) Match(title string) bool {
	for _, re := range m {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
