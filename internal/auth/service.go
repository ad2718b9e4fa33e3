package auth

import (
	"context"
	"errors"
	"time"
)

const defaultEvalTimeout = 3 * time.Second

// SessionStore is the session authority. One record per user; writing a
// new token invalidates whatever was there before.
type SessionStore interface {
	Put(ctx context.Context, userID int64, token string, ttl time.Duration) error
	Current(ctx context.Context, userID int64) (string, error)
	Delete(ctx context.Context, userID int64) error
}

// Service ties credential verification, session currency and access
// resolution together. It is the only component the HTTP layer talks to.
type Service struct {
	verifier *Verifier
	sessions SessionStore
	resolver *Resolver
	store    Store
	public   *PublicPaths
	timeout  time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEvalTimeout bounds every authorization evaluation. A deadline hit is
// reported as the retryable system error, never as an allow.
func WithEvalTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPublicPaths installs the public-path registry.
func WithPublicPaths(p *PublicPaths) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.public = p
		}
	}
}

// NewService constructs a Service.
func NewService(verifier *Verifier, sessions SessionStore, store Store, opts ...ServiceOption) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("auth: verifier is required")
	}
	if sessions == nil {
		return nil, errors.New("auth: session store is required")
	}
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	s := &Service{
		verifier: verifier,
		sessions: sessions,
		resolver: NewResolver(store),
		store:    store,
		public:   NewPublicPaths(nil, nil),
		timeout:  defaultEvalTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Public returns the public-path registry.
func (s *Service) Public() *PublicPaths { return s.public }

// Authenticate verifies a credential end to end: signature and expiry,
// then session currency, then user existence and status. On success it
// returns the identity plus the user row it was checked against.
func (s *Service) Authenticate(ctx context.Context, credential string) (Identity, UserRecord, *Denial) {
	if credential == "" {
		return Identity{}, UserRecord{}, Deny(CodeMissingCredential, "credential is required")
	}
	id, err := s.verifier.Verify(credential)
	if err != nil {
		return Identity{}, UserRecord{}, denialFromVerify(err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	current, err := s.sessions.Current(ctx, id.UserID)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return Identity{}, UserRecord{}, SystemError(err)
	}
	if current != credential {
		return Identity{}, UserRecord{}, Deny(CodeStaleSession, "signed in elsewhere")
	}
	user, denial := s.resolver.Lookup(ctx, id.UserID)
	if denial != nil {
		return Identity{}, UserRecord{}, denial
	}
	return id, user, nil
}

// Authorize runs the mode-based pipeline: authenticate, then evaluate the
// requirement, resolving roles or permissions only when the requirement
// needs them. It returns the authorization to attach to the request
// context.
func (s *Service) Authorize(ctx context.Context, credential string, req Requirement) (Authorization, *Denial) {
	id, user, denial := s.Authenticate(ctx, credential)
	if denial != nil {
		return Authorization{}, denial
	}
	az := Authorization{Identity: id, IsAdmin: user.IsAdmin}
	switch req.Mode {
	case ModeRole, ModePermission:
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		snap, denial := s.resolver.Resolve(ctx, id.UserID)
		if denial != nil {
			return Authorization{}, denial
		}
		az.Roles = snap.RoleIdens()
		az.Permissions = snap.PermissionIdens()
	}
	if denial := req.Satisfied(az); denial != nil {
		return Authorization{}, denial
	}
	return az, nil
}

// AuthorizeAPI runs the full ACL pipeline used by the access-token guard:
// authenticate, then resolve the complete access closure and check it
// against the request's own path and method. The secondary access token is
// verified by the caller before this point.
func (s *Service) AuthorizeAPI(ctx context.Context, credential, path, method string) (Authorization, *Denial) {
	id, user, denial := s.Authenticate(ctx, credential)
	if denial != nil {
		return Authorization{}, denial
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	snap, denial := s.resolver.Resolve(ctx, id.UserID)
	if denial != nil {
		return Authorization{}, denial
	}
	if denial := snap.Authorize(path, method); denial != nil {
		return Authorization{}, denial
	}
	return Authorization{
		Identity:    id,
		IsAdmin:     user.IsAdmin,
		Roles:       snap.RoleIdens(),
		Permissions: snap.PermissionIdens(),
	}, nil
}

// Login verifies credentials, mints a fresh token and makes it the sole
// current session for the user. Any previously issued token becomes stale.
func (s *Service) Login(ctx context.Context, username, password, platform, fingerprint string) (string, time.Time, *Denial) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	user, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", time.Time{}, Deny(CodeUserNotFound, "unknown account or wrong password")
		}
		return "", time.Time{}, SystemError(err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		// Same message as the unknown-account case so probing cannot
		// distinguish the two.
		return "", time.Time{}, Deny(CodeUserNotFound, "unknown account or wrong password")
	}
	if !user.Active() {
		return "", time.Time{}, Deny(CodeUserBanned, "account is disabled")
	}
	token, expiresAt, err := s.verifier.Issue(Identity{
		UserID:      user.ID,
		Account:     user.Username,
		Platform:    platform,
		Fingerprint: fingerprint,
	})
	if err != nil {
		return "", time.Time{}, SystemError(err)
	}
	if err := s.sessions.Put(ctx, user.ID, token, s.verifier.TTL()); err != nil {
		return "", time.Time{}, SystemError(err)
	}
	return token, expiresAt, nil
}

// Logout removes the session record so the presented token (and any other
// outstanding one) stops authenticating immediately.
func (s *Service) Logout(ctx context.Context, credential string) *Denial {
	id, _, denial := s.Authenticate(ctx, credential)
	if denial != nil {
		return denial
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.sessions.Delete(ctx, id.UserID); err != nil {
		return SystemError(err)
	}
	return nil
}

// Refresh exchanges a still-current credential for a fresh one and makes
// the fresh one the sole session. The old credential stops working.
func (s *Service) Refresh(ctx context.Context, credential string) (string, time.Time, *Denial) {
	id, user, denial := s.Authenticate(ctx, credential)
	if denial != nil {
		return "", time.Time{}, denial
	}
	token, expiresAt, err := s.verifier.Issue(Identity{
		UserID:      id.UserID,
		Account:     user.Username,
		Platform:    id.Platform,
		Fingerprint: id.Fingerprint,
	})
	if err != nil {
		return "", time.Time{}, SystemError(err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.sessions.Put(ctx, id.UserID, token, s.verifier.TTL()); err != nil {
		return "", time.Time{}, SystemError(err)
	}
	return token, expiresAt, nil
}

func denialFromVerify(err error) *Denial {
	switch {
	case errors.Is(err, ErrExpiredCredential):
		return Deny(CodeExpiredCredential, "credential has expired")
	case errors.Is(err, ErrSignatureInvalid):
		return Deny(CodeSignatureInvalid, "credential signature rejected")
	default:
		return Deny(CodeMalformedCredential, "credential could not be parsed")
	}
}
