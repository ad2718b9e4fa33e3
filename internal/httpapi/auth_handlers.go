package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"mservice.org/internal/audit"
	"mservice.org/internal/auth"
)

type loginRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Platform    string `json:"platform"`
	Fingerprint string `json:"fingerprint"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respondError(w, r, http.StatusBadRequest, "BAD_REQUEST", "username and password are required")
		return
	}

	token, expiresAt, denial := a.svc.Login(r.Context(), req.Username, req.Password, req.Platform, req.Fingerprint)
	if denial != nil {
		a.deny(w, r, denial)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username": req.Username,
		"platform": req.Platform,
		"ip":       clientIP(r),
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST")
		return
	}
	credential := credentialFrom(r)
	if credential == "" {
		a.deny(w, r, auth.Deny(auth.CodeMissingCredential, "credential is required"))
		return
	}
	if denial := a.svc.Logout(r.Context(), credential); denial != nil {
		a.deny(w, r, denial)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{"ip": clientIP(r)})
	writeJSON(w, http.StatusOK, map[string]any{"status": "signed_out"})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "use POST")
		return
	}
	credential := credentialFrom(r)
	if credential == "" {
		a.deny(w, r, auth.Deny(auth.CodeMissingCredential, "credential is required"))
		return
	}
	token, expiresAt, denial := a.svc.Refresh(r.Context(), credential)
	if denial != nil {
		a.deny(w, r, denial)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{"ip": clientIP(r)})
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (a *API) handleWhoami(w http.ResponseWriter, r *http.Request) {
	az, ok := auth.AuthorizationFromContext(r.Context())
	if !ok {
		a.deny(w, r, auth.Deny(auth.CodeMissingCredential, "credential is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":  az.Identity.UserID,
		"account":  az.Identity.Account,
		"platform": az.Identity.Platform,
		"is_admin": az.IsAdmin,
	})
}
