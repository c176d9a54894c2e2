package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sanarkk/book-management-system-api/internal/config"
)

// TokenManager issues and validates signed, time-limited bearer tokens.
// The token subject is the username of the authenticated user.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if cfg.TokenTTLMinutes <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenManager{
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTLMinutes) * time.Minute,
		issuer: cfg.Issuer,
	}, nil
}

// Generate signs a new token for the given username using the default TTL.
func (m *TokenManager) Generate(username string) (string, error) {
	return m.GenerateWithTTL(username, m.ttl)
}

// GenerateWithTTL signs a new token with an explicit lifetime.
func (m *TokenManager) GenerateWithTTL(username string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", errors.New("invalid token subject")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ResolveSubject validates the token and returns its subject. It fails when
// the token is malformed, signed with the wrong key or algorithm, expired,
// or carries no subject.
func (m *TokenManager) ResolveSubject(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", errors.New("token is empty")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", errors.New("invalid token")
	}

	if claims.Issuer != m.issuer {
		return "", errors.New("invalid token issuer")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("invalid token subject")
	}

	return claims.Subject, nil
}
