package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenVerifierNotConfigured = errors.New("token verifier is not configured")

// TokenClaims is the verified subset of a session token.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

type jwtVerifier struct {
	key     interface{}
	methods []string
	issuer  string
}

// NewTokenVerifier builds a RS256 verifier when publicKeyPEM is set, a HS256 verifier otherwise.
func NewTokenVerifier(publicKeyPEM, secret, issuer string) (TokenVerifier, error) {
	if strings.TrimSpace(publicKeyPEM) != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, err
		}
		return &jwtVerifier{key: key, methods: []string{"RS256"}, issuer: issuer}, nil
	}
	if secret != "" {
		return &jwtVerifier{key: []byte(secret), methods: []string{"HS256"}, issuer: issuer}, nil
	}
	return nil, ErrTokenVerifierNotConfigured
}

func (v *jwtVerifier) Verify(token string) (*TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token subject is empty")
	}
	return &TokenClaims{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
