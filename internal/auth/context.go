package auth

import "context"

type ctxKey int

const (
	identityKey ctxKey = iota
	authorizationKey
)

// Authorization is the fully-resolved view of a request principal: the
// verified identity plus whatever the resolver attached. Roles and
// Permissions hold stable keys, not display names.
type Authorization struct {
	Identity    Identity
	IsAdmin     bool
	Roles       []string
	Permissions []string
}

// HasRole reports whether the authorization carries the role key.
func (a Authorization) HasRole(iden string) bool {
	for _, r := range a.Roles {
		if r == iden {
			return true
		}
	}
	return false
}

// HasPermission reports whether the authorization carries the permission key.
func (a Authorization) HasPermission(iden string) bool {
	for _, p := range a.Permissions {
		if p == iden {
			return true
		}
	}
	return false
}

// ContextWithIdentity attaches a verified identity to the context. Used on
// public routes where a valid credential was presented opportunistically.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached to the context, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ContextWithAuthorization attaches a resolved authorization to the context.
func ContextWithAuthorization(ctx context.Context, az Authorization) context.Context {
	ctx = ContextWithIdentity(ctx, az.Identity)
	return context.WithValue(ctx, authorizationKey, az)
}

// AuthorizationFromContext returns the resolved authorization, if any.
func AuthorizationFromContext(ctx context.Context) (Authorization, bool) {
	az, ok := ctx.Value(authorizationKey).(Authorization)
	return az, ok
}

// CurrentUserID returns the user id attached to the context, or zero when
// the request is anonymous.
func CurrentUserID(ctx context.Context) int64 {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.UserID
	}
	return 0
}
