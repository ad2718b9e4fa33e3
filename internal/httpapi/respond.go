package httpapi

import (
	"encoding/json"
	"net/http"

	"mservice.org/internal/auth"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the standard error envelope. The code field is part
// of the client contract.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":       code,
		"error":      message,
		"request_id": requestIDFromContext(r.Context()),
	})
}

// denialStatus maps a denial code onto an HTTP status. Credential problems
// are 401, authorization problems 403, maintenance 503, infrastructure 500.
func denialStatus(code auth.Code) int {
	switch code {
	case auth.CodeMissingCredential,
		auth.CodeMalformedCredential,
		auth.CodeExpiredCredential,
		auth.CodeSignatureInvalid,
		auth.CodeStaleSession,
		auth.CodeAccessTokenInvalid:
		return http.StatusUnauthorized
	case auth.CodeUserNotFound,
		auth.CodeUserBanned,
		auth.CodeNoRoleAssigned,
		auth.CodeNoPermissionAssigned,
		auth.CodePathNotAuthorized,
		auth.CodeAPIClosed,
		auth.CodeUnknownMode:
		return http.StatusForbidden
	case auth.CodeAPIMaintenance:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
