package auth

import "testing"

func TestPathMatches(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/api/v1/articles", "/api/v1/articles", true},
		{"/api/v1/articles", "/api/v1/articles/", true},
		{"/api/v1/articles", "/api/v1/articles/7", false},
		{"/api/v1/files/*", "/api/v1/files/123", true},
		{"/api/v1/files/*", "/api/v1/files/123/meta", true},
		{"/api/v1/files/*", "/api/v1/files", false},
		{"/api/v1/files/*", "/api/v1/other/123", false},
		{"/api/v1/*/export", "/api/v1/reports/export", true},
		{"/api/v1/*/export", "/api/v1/export", false},
		{"/API/V1/Articles", "/api/v1/articles", true},
		{"", "/api/v1/articles", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" vs "+tt.path, func(t *testing.T) {
			if got := PathMatches(tt.pattern, tt.path); got != tt.want {
				t.Fatalf("PathMatches(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestMethodMatches(t *testing.T) {
	tests := []struct {
		constraint string
		method     string
		want       bool
	}{
		{"", "GET", true},
		{"", "DELETE", true},
		{"ANY", "POST", true},
		{"any", "PUT", true},
		{"GET", "GET", true},
		{"get", "GET", true},
		{"GET", "POST", false},
		{"PUT", "put", true},
	}
	for _, tt := range tests {
		if got := MethodMatches(tt.constraint, tt.method); got != tt.want {
			t.Fatalf("MethodMatches(%q, %q) = %v, want %v", tt.constraint, tt.method, got, tt.want)
		}
	}
}
