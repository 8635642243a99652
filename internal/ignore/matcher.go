// Package ignore implements gitignore-style path patterns. The cleanup
// planner uses it to match glob entries of its pattern table and to prune
// directories it must never descend into.
package ignore

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Rule is one parsed pattern line.
type Rule struct {
	Pattern  string
	Negated  bool
	DirOnly  bool
	Anchored bool

	re *regexp.Regexp
}

// Matcher applies rules with "last rule wins" behavior.
type Matcher struct {
	rules []Rule
}

// DefaultPrune lists directories no cleanup scan descends into.
var DefaultPrune = []string{
	".git/",
	"node_modules/",
	"/.claude/",
	"/.agent/",
}

func NewMatcher(lines []string) *Matcher {
	rules := make([]Rule, 0, len(lines))
	for _, line := range lines {
		if parsed, ok := ParseRule(line); ok {
			rules = append(rules, parsed)
		}
	}
	return &Matcher{rules: rules}
}

// ShouldIgnore returns true when relPath is matched by the rule set.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	ignored := false
	for _, rule := range m.rules {
		if rule.Matches(relPath, isDir) {
			ignored = !rule.Negated
		}
	}
	return ignored
}

// IsGlob reports whether pattern needs matching rather than a direct stat.
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func ParseRule(line string) (Rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Rule{}, false
	}

	parsed := Rule{}
	if strings.HasPrefix(line, "!") {
		parsed.Negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasPrefix(line, "/") {
		parsed.Anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		parsed.DirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalizePath(line)
	if line == "" {
		return Rule{}, false
	}
	parsed.Pattern = line
	parsed.re = regexp.MustCompile("^" + globToRegex(line) + "$")
	return parsed, true
}

// Matches reports whether the rule selects relPath, ignoring negation.
func (r Rule) Matches(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)

	if r.DirOnly {
		if r.matchDirectory(relPath) {
			return true
		}
		return isDir && !r.Anchored && r.match(filepath.Base(relPath))
	}

	if r.Anchored {
		return r.match(relPath)
	}

	if strings.Contains(r.Pattern, "/") {
		if r.match(relPath) {
			return true
		}
		parts := strings.Split(relPath, "/")
		for i := 1; i < len(parts); i++ {
			if r.match(strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	for _, segment := range strings.Split(relPath, "/") {
		if r.match(segment) {
			return true
		}
	}
	return false
}

func (r Rule) matchDirectory(relPath string) bool {
	if relPath == r.Pattern || strings.HasPrefix(relPath, r.Pattern+"/") {
		return true
	}
	if r.Anchored {
		return false
	}

	parts := strings.Split(relPath, "/")
	for _, part := range parts[:len(parts)-1] {
		if r.match(part) {
			return true
		}
	}
	return false
}

func (r Rule) match(value string) bool {
	if r.re == nil {
		r.re = regexp.MustCompile("^" + globToRegex(r.Pattern) + "$")
	}
	return r.re.MatchString(value)
}

func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]

		if ch == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
				continue
			}
			b.WriteString("[^/]*")
			continue
		}

		if ch == '?' {
			b.WriteString("[^/]")
			continue
		}

		if strings.ContainsRune(`.+()|[]{}^$\\`, rune(ch)) {
			b.WriteByte('\\')
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}
