package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates a token that is malformed, carries an
	// invalid signature, or names no subject.
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrIncorrectScope indicates a structurally valid token presented for
	// an operation its scope does not cover.
	ErrIncorrectScope = errors.New("incorrect authorization scope")
)

// Scope restricts what an authenticated token may be exchanged for.
type Scope string

const (
	// ScopeAPI grants general API access. It satisfies every scope check;
	// all other scopes are compared by equality only.
	ScopeAPI Scope = "api"
	// ScopeLastFMLink is a single-purpose scope for completing a last.fm
	// account link.
	ScopeLastFMLink Scope = "lastfm_link"
)

// Claims is the verified content of a bearer token.
type Claims struct {
	Username string
	Scope    Scope
	IssuedAt time.Time
}

type tokenClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for username restricted to scope.
func IssueToken(secret Secret, username string, scope Scope) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Scope: string(scope),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret[:])
	if err != nil {
		return "", fmt.Errorf("sign auth token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature of a bearer token and that its scope
// covers required. It returns the token claims so callers can re-check the
// named user against current state.
func VerifyToken(secret Secret, token string, required Scope) (Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) { return secret[:], nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	scope := Scope(claims.Scope)
	if scope != required && scope != ScopeAPI {
		return Claims{}, fmt.Errorf("%w: token grants %q, operation requires %q", ErrIncorrectScope, scope, required)
	}

	verified := Claims{Username: claims.Subject, Scope: scope}
	if claims.IssuedAt != nil {
		verified.IssuedAt = claims.IssuedAt.Time
	}
	return verified, nil
}
