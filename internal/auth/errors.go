package auth

import (
	"errors"
	"fmt"
)

// Code identifies a terminal authorization outcome. Codes are part of the
// client contract and must stay stable across releases.
type Code string

const (
	CodeMissingCredential    Code = "MISSING_CREDENTIAL"
	CodeMalformedCredential  Code = "MALFORMED_CREDENTIAL"
	CodeExpiredCredential    Code = "EXPIRED_CREDENTIAL"
	CodeSignatureInvalid     Code = "SIGNATURE_INVALID"
	CodeAccessTokenInvalid   Code = "ACCESS_TOKEN_INVALID"
	CodeStaleSession         Code = "STALE_SESSION"
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeUserBanned           Code = "USER_BANNED"
	CodeNoRoleAssigned       Code = "NO_ROLE_ASSIGNED"
	CodeNoPermissionAssigned Code = "NO_PERMISSION_ASSIGNED"
	CodePathNotAuthorized    Code = "PATH_NOT_AUTHORIZED"
	CodeAPIClosed            Code = "API_CLOSED"
	CodeAPIMaintenance       Code = "API_MAINTENANCE"
	CodeUnknownMode          Code = "UNKNOWN_MODE"
	CodeSystemError          Code = "SYSTEM_ERROR"
)

// Denial is a typed authorization failure. Every code except
// CodeSystemError is terminal for the current request; CodeSystemError marks
// a transient infrastructure fault and is the only outcome a caller may retry.
type Denial struct {
	Code    Code
	Message string
	Err     error
}

func (d *Denial) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %v", d.Code, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

func (d *Denial) Unwrap() error { return d.Err }

// Retryable reports whether the caller may retry the request.
func (d *Denial) Retryable() bool { return d.Code == CodeSystemError }

// Deny constructs a terminal denial.
func Deny(code Code, message string) *Denial {
	return &Denial{Code: code, Message: message}
}

// SystemError wraps an infrastructure fault (store unreachable, deadline
// exceeded) as the single retryable denial kind.
func SystemError(err error) *Denial {
	return &Denial{Code: CodeSystemError, Message: "authorization backend unavailable", Err: err}
}

// Sentinel errors returned by stores; the service maps them onto denials.
var (
	ErrNotFound  = errors.New("auth: not found")
	ErrNoSession = errors.New("auth: no session")
)
