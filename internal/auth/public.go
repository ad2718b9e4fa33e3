package auth

import "strings"

// PublicPaths is the registry of routes that never require a credential.
// It is built once at startup from configuration and read-only afterwards.
type PublicPaths struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewPublicPaths builds a registry from exact paths and prefix patterns.
// A prefix entry may be written with a trailing "*" or "/"; both forms
// match any path underneath.
func NewPublicPaths(exact []string, prefixes []string) *PublicPaths {
	p := &PublicPaths{exact: make(map[string]struct{}, len(exact))}
	for _, e := range exact {
		e = normalizePath(e)
		if e == "" {
			continue
		}
		p.exact[e] = struct{}{}
	}
	for _, pre := range prefixes {
		pre = strings.TrimSuffix(strings.TrimSpace(pre), "*")
		pre = normalizePath(pre)
		if pre == "" {
			continue
		}
		if !strings.HasSuffix(pre, "/") {
			pre += "/"
		}
		p.prefixes = append(p.prefixes, pre)
	}
	return p
}

// IsPublic reports whether the path bypasses credential enforcement.
func (p *PublicPaths) IsPublic(path string) bool {
	path = normalizePath(path)
	if _, ok := p.exact[path]; ok {
		return true
	}
	for _, pre := range p.prefixes {
		if strings.HasPrefix(path, pre) {
			return true
		}
	}
	return false
}

// normalizePath lowercases the path and strips a trailing slash so that
// /Api/v1/Login/ and /api/v1/login compare equal. Root stays "/".
func normalizePath(path string) string {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
