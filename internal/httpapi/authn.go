package httpapi

import (
	"net/http"
	"strings"

	"mservice.org/internal/audit"
	"mservice.org/internal/auth"
	"mservice.org/internal/obs"
)

const (
	authHeader        = "Authorization"
	bearer            = "Bearer "
	accessTokenHeader = "X-Access-Token"
	credentialCookie  = "token"
)

// credentialFrom pulls the credential from the Authorization header, then
// the token cookie. An empty return means none was presented.
func credentialFrom(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(authHeader))
	if header != "" && strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return strings.TrimSpace(header[len(bearer):])
	}
	if c, err := r.Cookie(credentialCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// withGuard enforces a requirement on the wrapped handler. Public paths
// bypass enforcement entirely; a valid credential on a public path still
// attaches the identity so handlers can personalize.
func (a *API) withGuard(req auth.Requirement, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		credential := credentialFrom(r)
		if a.svc.Public().IsPublic(r.URL.Path) {
			if credential != "" {
				if id, _, denial := a.svc.Authenticate(r.Context(), credential); denial == nil {
					r = r.WithContext(auth.ContextWithIdentity(r.Context(), id))
				}
				// A bad credential on a public path degrades to anonymous.
			}
			next.ServeHTTP(w, r)
			return
		}
		if credential == "" {
			a.deny(w, r, auth.Deny(auth.CodeMissingCredential, "credential is required"))
			return
		}
		az, denial := a.svc.Authorize(r.Context(), credential, req)
		if denial != nil {
			a.deny(w, r, denial)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithAuthorization(r.Context(), az)))
	})
}

// withAPIGuard enforces the full ACL pipeline: the secondary access token
// must verify, then the user's resolved api closure must cover the
// request's own path and method.
func (a *API) withAPIGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if a.svc.Public().IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if a.accessTokens != nil {
			if _, err := a.accessTokens.Verify(r.Header.Get(accessTokenHeader)); err != nil {
				a.deny(w, r, auth.Deny(auth.CodeAccessTokenInvalid, "access token rejected"))
				return
			}
		}
		credential := credentialFrom(r)
		if credential == "" {
			a.deny(w, r, auth.Deny(auth.CodeMissingCredential, "credential is required"))
			return
		}
		az, denial := a.svc.AuthorizeAPI(r.Context(), credential, r.URL.Path, r.Method)
		if denial != nil {
			a.deny(w, r, denial)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithAuthorization(r.Context(), az)))
	})
}

// deny records and responds to an authorization failure. The raw
// credential never reaches the audit trail.
func (a *API) deny(w http.ResponseWriter, r *http.Request, denial *auth.Denial) {
	obs.RecordDenial(string(denial.Code))
	_ = audit.LogEvent(r.Context(), "auth.denied", map[string]any{
		"code":   string(denial.Code),
		"path":   r.URL.Path,
		"method": r.Method,
		"ip":     clientIP(r),
	})
	respondError(w, r, denialStatus(denial.Code), string(denial.Code), denial.Message)
}
