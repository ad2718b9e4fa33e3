package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "m-service"

// Credential verification failures. The service maps these onto the stable
// denial codes; callers compare with errors.Is.
var (
	ErrMalformedCredential = errors.New("auth: malformed credential")
	ErrExpiredCredential   = errors.New("auth: expired credential")
	ErrSignatureInvalid    = errors.New("auth: credential signature invalid")
)

// Identity is the payload decoded from a verified credential. It is
// reconstructed per request and never persisted on its own.
type Identity struct {
	UserID      int64
	Account     string
	LoginAt     time.Time
	Platform    string
	Fingerprint string
}

// Claims is the JWT claim set carried by a credential.
type Claims struct {
	UserID      int64  `json:"uid"`
	Account     string `json:"account"`
	Platform    string `json:"platform,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and validates signed credentials using HS256. It knows
// nothing about sessions or the user table; session currency and user
// existence are the caller's responsibility.
type Verifier struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) {
		if strings.TrimSpace(issuer) != "" {
			v.issuer = strings.TrimSpace(issuer)
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if fn != nil {
			v.now = fn
		}
	}
}

// NewVerifier constructs a Verifier. The secret must be non-empty and ttl
// positive; both are configuration errors, not runtime denials.
func NewVerifier(secret string, ttl time.Duration, opts ...VerifierOption) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: verifier secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: credential ttl must be greater than zero")
	}
	v := &Verifier{
		secret: []byte(secret),
		issuer: defaultIssuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// TTL returns the configured credential lifetime. The session authority
// store uses the same value so record expiry tracks credential expiry.
func (v *Verifier) TTL() time.Duration { return v.ttl }

// Issue signs a fresh credential for the identity. LoginAt is stamped from
// the verifier clock regardless of the passed value.
func (v *Verifier) Issue(id Identity) (string, time.Time, error) {
	if id.UserID <= 0 {
		return "", time.Time{}, errors.New("auth: user id is required")
	}
	now := v.now().UTC()
	expiresAt := now.Add(v.ttl)
	claims := Claims{
		UserID:      id.UserID,
		Account:     id.Account,
		Platform:    id.Platform,
		Fingerprint: id.Fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   claimSubject(id.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates a credential and returns the decoded identity. Failures
// are one of ErrMalformedCredential, ErrExpiredCredential or
// ErrSignatureInvalid.
func (v *Verifier) Verify(credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, ErrMalformedCredential
	}
	parsed, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, ErrExpiredCredential
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrSignatureInvalid):
			return Identity{}, ErrSignatureInvalid
		default:
			return Identity{}, ErrMalformedCredential
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrMalformedCredential
	}
	if claims.UserID <= 0 {
		return Identity{}, ErrMalformedCredential
	}
	if claims.Issuer != v.issuer {
		return Identity{}, ErrSignatureInvalid
	}
	id := Identity{
		UserID:      claims.UserID,
		Account:     claims.Account,
		Platform:    claims.Platform,
		Fingerprint: claims.Fingerprint,
	}
	if claims.IssuedAt != nil {
		id.LoginAt = claims.IssuedAt.Time
	}
	return id, nil
}

func claimSubject(userID int64) string {
	// Subject duplicates the uid claim for interoperability with generic
	// JWT tooling; the uid claim stays authoritative.
	return "user-" + strconv.FormatInt(userID, 10)
}

// AccessTokens verifies the secondary opaque token required by the full
// API-ACL middleware variant. The token format is payload.signature where
// the signature is an HMAC over the payload with a secret distinct from the
// credential secret.
type AccessTokens struct {
	secret []byte
}

// NewAccessTokens constructs an AccessTokens verifier.
func NewAccessTokens(secret string) (*AccessTokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: access token secret is required")
	}
	return &AccessTokens{secret: []byte(secret)}, nil
}

// Mint produces an access token for the given subject.
func (a *AccessTokens) Mint(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("auth: access token subject is required")
	}
	payload := base64.RawURLEncoding.EncodeToString([]byte(subject))
	return payload + "." + a.sign(payload), nil
}

// Verify checks the token structure and signature and returns the subject.
func (a *AccessTokens) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrMalformedCredential
	}
	if !hmac.Equal([]byte(a.sign(parts[0])), []byte(parts[1])) {
		return "", ErrSignatureInvalid
	}
	subject, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrMalformedCredential
	}
	return string(subject), nil
}

func (a *AccessTokens) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
