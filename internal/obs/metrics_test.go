package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                           "/",
		"/metrics":                   "/metrics",
		"/api/v1/articles/123":       "/api/v1/articles/:id",
		"/api/v1/articles/123/meta":  "/api/v1/articles/:id/meta",
		"/api/v1/articles":           "/api/v1/articles",
		"/api/v1/users/42?fields=id": "/api/v1/users/:id",
		"/healthz":                   "/healthz",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
