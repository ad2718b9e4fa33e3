package auth

import (
	"context"
	"errors"
)

// API entry states. Only open entries authorize traffic; the other two
// surface as distinct denial codes so clients can tell maintenance from a
// retired route.
const (
	APIStatusMaintenance = 0
	APIStatusOpen        = 1
	APIStatusClosed      = 2
)

// User account states.
const (
	UserStatusBanned = 0
	UserStatusActive = 1
)

// UserRecord is the slice of the user row the authorization pipeline needs.
type UserRecord struct {
	ID           int64
	Username     string
	PasswordHash string
	Status       int
	IsAdmin      bool
}

// Active reports whether the account may authenticate.
func (u UserRecord) Active() bool { return u.Status == UserStatusActive }

// RoleRecord is an enabled, live role assigned to a user.
type RoleRecord struct {
	ID   int64
	Iden string
}

// PermissionRecord is a live permission granted through a role.
type PermissionRecord struct {
	ID   int64
	Iden string
}

// APIRecord is a route entry bound to a permission.
type APIRecord struct {
	ID       int64
	FullPath string
	Method   string
	Status   int
}

// Store is the persistence surface the resolver and service depend on.
// Implementations must exclude disabled roles and soft-deleted rows at
// query time; the resolver never filters after the fact.
type Store interface {
	FindUser(ctx context.Context, id int64) (UserRecord, error)
	FindUserByUsername(ctx context.Context, username string) (UserRecord, error)
	RolesForUser(ctx context.Context, userID int64) ([]RoleRecord, error)
	PermissionsForRoles(ctx context.Context, roleIDs []int64) ([]PermissionRecord, error)
	APIsForPermissions(ctx context.Context, permissionIDs []int64) ([]APIRecord, error)
}

// Snapshot is the resolved access closure for one user at one instant.
// It is computed per request and never cached across requests.
type Snapshot struct {
	User        UserRecord
	Roles       []RoleRecord
	Permissions []PermissionRecord
	APIs        []APIRecord
}

// RoleIdens returns the stable role keys in the snapshot.
func (s *Snapshot) RoleIdens() []string {
	out := make([]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		out = append(out, r.Iden)
	}
	return out
}

// PermissionIdens returns the stable permission keys in the snapshot.
func (s *Snapshot) PermissionIdens() []string {
	out := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		out = append(out, p.Iden)
	}
	return out
}

// Resolver walks the user → roles → permissions → apis chain.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Lookup fetches the user row and maps absence and banned state onto
// denials. Used by both the mode and ACL guards before any role work.
func (r *Resolver) Lookup(ctx context.Context, userID int64) (UserRecord, *Denial) {
	user, err := r.store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return UserRecord{}, Deny(CodeUserNotFound, "user no longer exists")
		}
		return UserRecord{}, SystemError(err)
	}
	if !user.Active() {
		return UserRecord{}, Deny(CodeUserBanned, "account is disabled")
	}
	return user, nil
}

// Resolve computes the full access closure for a user. Empty stages map
// onto their dedicated denial codes; infrastructure faults onto the
// retryable system error.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Snapshot, *Denial) {
	user, denial := r.Lookup(ctx, userID)
	if denial != nil {
		return nil, denial
	}
	roles, err := r.store.RolesForUser(ctx, userID)
	if err != nil {
		return nil, SystemError(err)
	}
	if len(roles) == 0 {
		return nil, Deny(CodeNoRoleAssigned, "no enabled role assigned")
	}
	roleIDs := make([]int64, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
	}
	permissions, err := r.store.PermissionsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, SystemError(err)
	}
	if len(permissions) == 0 {
		return nil, Deny(CodeNoPermissionAssigned, "roles grant no permissions")
	}
	permissionIDs := make([]int64, 0, len(permissions))
	for _, p := range permissions {
		permissionIDs = append(permissionIDs, p.ID)
	}
	apis, err := r.store.APIsForPermissions(ctx, permissionIDs)
	if err != nil {
		return nil, SystemError(err)
	}
	return &Snapshot{User: user, Roles: roles, Permissions: permissions, APIs: apis}, nil
}

// Authorize checks the snapshot against a concrete path and method. An
// open matching entry authorizes; a match that is only under maintenance
// or closed surfaces that state; no match at all is PATH_NOT_AUTHORIZED.
func (s *Snapshot) Authorize(path, method string) *Denial {
	matchedStatus := -1
	for _, api := range s.APIs {
		if !PathMatches(api.FullPath, path) || !MethodMatches(api.Method, method) {
			continue
		}
		if api.Status == APIStatusOpen {
			return nil
		}
		if matchedStatus == -1 || api.Status == APIStatusMaintenance {
			matchedStatus = api.Status
		}
	}
	switch matchedStatus {
	case APIStatusMaintenance:
		return Deny(CodeAPIMaintenance, "api is under maintenance")
	case APIStatusClosed:
		return Deny(CodeAPIClosed, "api has been closed")
	default:
		return Deny(CodePathNotAuthorized, "no permission covers this api")
	}
}
