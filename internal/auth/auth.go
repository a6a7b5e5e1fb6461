package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v4"
)

const (
	// CookieName is the session cookie the verifier reads the token from.
	CookieName = "jwt"

	DefaultTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenMissing = errors.New("token is missing")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
)

type JWTAuth struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	verifier *jwtauth.JWTAuth
}

type Claims struct {
	jwt.RegisteredClaims
}

func NewJWTAuth(secret []byte, opts ...Option) *JWTAuth {
	a := &JWTAuth{
		secret:   secret,
		tokenTTL: DefaultTokenTTL,
		issuer:   "tradesim",
	}

	for _, opt := range opts {
		opt(a)
	}

	a.verifier = jwtauth.New("HS256", a.secret, nil)

	return a
}

type Option func(a *JWTAuth)

func WithIssuer(issuer string) Option {
	return func(a *JWTAuth) {
		a.issuer = issuer
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(a *JWTAuth) {
		a.tokenTTL = ttl
	}
}

func (a *JWTAuth) TokenTTL() time.Duration {
	return a.tokenTTL
}

// CreateJWTString issues an HS256 session token for the user.
func (a *JWTAuth) CreateJWTString(sub string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("token.SignedString: %w", err)
	}

	return tokenString, nil
}

// VerifyJWTString checks signature, algorithm, issuer and expiry and returns the token subject.
func (a *JWTAuth) VerifyJWTString(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrTokenMissing
	}

	token, err := jwtauth.VerifyToken(a.verifier, tokenString)
	if err != nil {
		return "", classifyError(err)
	}

	if token.Issuer() != a.issuer || token.Subject() == "" {
		return "", ErrTokenInvalid
	}

	return token.Subject(), nil
}

// Verifier returns a middleware that looks for a token in the Authorization header
// and then in the session cookie, and stores the verification result in the request context.
func (a *JWTAuth) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verify(a.verifier, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie)
}

// UserIDFromContext returns the subject of the token verified by Verifier.
func (a *JWTAuth) UserIDFromContext(ctx context.Context) (string, error) {
	token, _, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", classifyError(err)
	}

	if token == nil {
		return "", ErrTokenMissing
	}

	if token.Issuer() != a.issuer || token.Subject() == "" {
		return "", ErrTokenInvalid
	}

	return token.Subject(), nil
}

func classifyError(err error) error {
	switch {
	case errors.Is(err, jwtauth.ErrNoTokenFound):
		return ErrTokenMissing
	case errors.Is(err, jwtauth.ErrExpired):
		return ErrTokenExpired
	default:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
}
