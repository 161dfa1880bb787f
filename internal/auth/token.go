package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoToken      = errors.New("no authentication token provided")
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
)

const issuer = "muse"

// Claims identifies the signed-in user.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID is the subject of the token.
func (c *Claims) UserID() string { return c.Subject }

// TokenManager issues and checks HS256 session tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time

	mu            sync.RWMutex
	revokedTokens map[string]time.Time // token ID -> expiry
}

// NewTokenManager creates a token manager; ttl <= 0 means 24h.
func NewTokenManager(secretKey string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secretKey:     []byte(secretKey),
		ttl:           ttl,
		now:           time.Now,
		revokedTokens: make(map[string]time.Time),
	}
}

// GenerateToken signs a token for the user.
func (tm *TokenManager) GenerateToken(userID, email string) (string, error) {
	now := tm.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, expiry and revocation.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrNoToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	tm.mu.RLock()
	_, revoked := tm.revokedTokens[claims.ID]
	tm.mu.RUnlock()
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// RevokeToken rejects the token from now on. Only valid tokens can be revoked.
func (tm *TokenManager) RevokeToken(tokenString string) error {
	claims, err := tm.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	exp := tm.now().Add(tm.ttl)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.revokedTokens[claims.ID] = exp
	tm.cleanupLocked()
	return nil
}

// cleanupLocked drops revocations of tokens that have expired anyway.
func (tm *TokenManager) cleanupLocked() {
	now := tm.now()
	for id, exp := range tm.revokedTokens {
		if exp.Before(now) {
			delete(tm.revokedTokens, id)
		}
	}
}

// RevokedTokenCount returns the number of tracked revocations.
func (tm *TokenManager) RevokedTokenCount() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return len(tm.revokedTokens)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", ErrNoToken
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

type claimsContextKey struct{}

// ContextWithClaims adds claims to context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts claims from context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}
