// Package auth guards administrative endpoints with a bcrypt-checked admin
// password and short-lived HS256 tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/medipulse/medipulse/internal/config"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const subjectContextKey contextKey = "subject"

const (
	issuer = "medipulse"
	// AdminSubject is the subject of every issued token.
	AdminSubject = "admin"
	// DefaultTokenDuration is how long an admin token stays valid.
	DefaultTokenDuration = 12 * time.Hour
)

var (
	// ErrDisabled is returned when no admin credentials are configured.
	ErrDisabled = errors.New("admin authentication is not configured")
	// ErrInvalidCredentials is returned for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims represents the JWT claims
type Claims struct {
	Subject string `json:"sub_id"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies admin tokens.
type Authenticator struct {
	secret        []byte
	passwordHash  []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewAuthenticator hashes the configured admin password. With incomplete
// credentials the authenticator rejects every request with ErrDisabled.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	a := &Authenticator{tokenDuration: DefaultTokenDuration, now: time.Now}
	if !cfg.AuthEnabled() {
		return a, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	a.secret = []byte(cfg.JWTSecret)
	a.passwordHash = hash
	return a, nil
}

// Enabled reports whether tokens can be issued.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0 && len(a.passwordHash) > 0
}

// Login exchanges the admin password for a signed token.
func (a *Authenticator) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := a.now()
	expires := now.Add(a.tokenDuration)
	claims := Claims{
		Subject: AdminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expires, nil
}

// Validate checks a token and returns its subject.
func (a *Authenticator) Validate(tokenString string) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("invalid token")
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			http.Error(w, "Admin authentication not configured", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Check for Bearer token format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		subject, err := a.Validate(parts[1])
		if err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), subjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext extracts the token subject placed by Middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	return subject, ok
}
