package auth

import (
	"regexp"
	"strings"
	"sync"
)

// patternCache memoizes compiled wildcard patterns; the api table is small
// and changes rarely, so unbounded growth is not a concern.
var patternCache sync.Map

// PathMatches reports whether a stored API path pattern covers the request
// path. Patterns without a "*" must match exactly. A "*" matches one or
// more trailing segments: "/api/v1/files/*" covers both "/api/v1/files/1"
// and "/api/v1/files/1/meta", but not "/api/v1/files" itself.
func PathMatches(pattern, path string) bool {
	pattern = normalizePath(pattern)
	path = normalizePath(path)
	if pattern == "" || path == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return pattern == path
	}
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// MethodMatches reports whether a stored method constraint covers the
// request method. Empty and "ANY" match everything; otherwise compare
// case-insensitively.
func MethodMatches(constraint, method string) bool {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || strings.EqualFold(constraint, "ANY") {
		return true
	}
	return strings.EqualFold(constraint, method)
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(pattern, "*") {
		if i > 0 {
			b.WriteString(".+")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}
