package auth

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates HS256 bearer tokens minted by the identity provider and
// resolves the caller's role.
type Verifier struct {
	secret   []byte
	audience string
	users    UserRepository
}

// NewVerifier creates a Verifier. An empty audience skips the aud check.
func NewVerifier(secret, audience string, users UserRepository) *Verifier {
	return &Verifier{secret: []byte(secret), audience: audience, users: users}
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// Subject validates the token and returns its sub claim.
func (v *Verifier) Subject(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", errors.Wrap(ErrUnauthenticated, err.Error())
	}
	if claims.Subject == "" {
		return "", errors.Wrap(ErrUnauthenticated, "missing subject")
	}
	return claims.Subject, nil
}

// Authenticate validates the token and resolves the actor's role.
func (v *Verifier) Authenticate(ctx context.Context, token string) (Actor, error) {
	sub, err := v.Subject(token)
	if err != nil {
		return Actor{}, err
	}
	role, err := v.users.RoleOf(ctx, sub)
	if err != nil {
		return Actor{}, errors.Wrap(err, "resolve role")
	}
	return Actor{UserID: sub, Role: role}, nil
}
