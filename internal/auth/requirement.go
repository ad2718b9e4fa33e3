package auth

import "strings"

// Mode selects how a Requirement is evaluated.
type Mode string

const (
	// ModeUser requires only an authenticated, active user.
	ModeUser Mode = "user"
	// ModeAdmin requires the user's admin flag.
	ModeAdmin Mode = "admin"
	// ModeRole requires at least one of the listed role keys.
	ModeRole Mode = "role"
	// ModePermission requires at least one of the listed permission keys.
	ModePermission Mode = "permission"
	// ModeUnknown is produced by ParseRequirement for unrecognized input
	// and always denies.
	ModeUnknown Mode = "unknown"
)

// Requirement describes what a guarded route demands of the caller. Build
// one with the Require* constructors at route registration time, or with
// ParseRequirement for config-driven routes.
type Requirement struct {
	Mode Mode
	Keys []string
}

// RequireUser accepts any authenticated, active user.
func RequireUser() Requirement { return Requirement{Mode: ModeUser} }

// RequireAdmin accepts only administrators.
func RequireAdmin() Requirement { return Requirement{Mode: ModeAdmin} }

// RequireRole accepts users holding at least one of the role keys.
func RequireRole(keys ...string) Requirement {
	return Requirement{Mode: ModeRole, Keys: cleanKeys(keys)}
}

// RequirePermission accepts users holding at least one of the permission keys.
func RequirePermission(keys ...string) Requirement {
	return Requirement{Mode: ModePermission, Keys: cleanKeys(keys)}
}

// ParseRequirement parses the textual form "mode" or "mode:k1,k2".
// Unrecognized modes yield a requirement that denies every caller; a parse
// never fails open.
func ParseRequirement(s string) Requirement {
	mode, rest, _ := strings.Cut(strings.TrimSpace(s), ":")
	keys := cleanKeys(strings.Split(rest, ","))
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeUser:
		return RequireUser()
	case ModeAdmin:
		return RequireAdmin()
	case ModeRole:
		return RequireRole(keys...)
	case ModePermission:
		return RequirePermission(keys...)
	default:
		return Requirement{Mode: ModeUnknown}
	}
}

// Satisfied evaluates the requirement against a resolved authorization.
// A nil return means the caller passes.
func (r Requirement) Satisfied(az Authorization) *Denial {
	switch r.Mode {
	case ModeUser:
		return nil
	case ModeAdmin:
		if az.IsAdmin {
			return nil
		}
		return Deny(CodePathNotAuthorized, "administrator access required")
	case ModeRole:
		for _, k := range r.Keys {
			if az.HasRole(k) {
				return nil
			}
		}
		return Deny(CodePathNotAuthorized, "required role not held")
	case ModePermission:
		for _, k := range r.Keys {
			if az.HasPermission(k) {
				return nil
			}
		}
		return Deny(CodePathNotAuthorized, "required permission not held")
	default:
		return Deny(CodeUnknownMode, "unrecognized authorization mode")
	}
}

func cleanKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out = append(out, k)
	}
	return out
}
