// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/shelfwise/internal/config"
)

// Roles understood by the authorization policy.
const (
	RoleAdmin  = "admin"
	RoleIngest = "ingest"
	RoleReader = "reader"
)

// AllTenants is the tenant claim of cross-tenant admin tokens.
const AllTenants = "*"

var (
	// ErrInvalidToken is returned for tokens that fail parsing or verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidClaims is returned when issuing a token with unusable claims.
	ErrInvalidClaims = errors.New("invalid claims")
)

// Claims represents JWT claims.
type Claims struct {
	TenantID string `json:"tenant"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// CanAccessTenant reports whether the claims grant access to tenantID.
func (c *Claims) CanAccessTenant(tenantID string) bool {
	if c.TenantID == AllTenants {
		return c.Role == RoleAdmin
	}
	return c.TenantID != "" && c.TenantID == tenantID
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleIngest, RoleReader:
		return true
	}
	return false
}

// JWTManager issues and verifies tenant tokens.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTManager creates a manager from the security configuration.
// The secret must be at least 32 characters.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		ttl:    ttl,
	}, nil
}

// GenerateToken signs a token for subject with access to tenantID as role.
func (m *JWTManager) GenerateToken(subject, tenantID, role string) (string, error) {
	if !ValidRole(role) {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, role)
	}
	if tenantID == "" || (tenantID == AllTenants && role != RoleAdmin) {
		return "", fmt.Errorf("%w: tenant %q not allowed for role %s", ErrInvalidClaims, tenantID, role)
	}

	now := time.Now()
	claims := &Claims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm, expiry and issuer, and
// returns the claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidToken)
	}
	if !ValidRole(claims.Role) || claims.TenantID == "" {
		return nil, fmt.Errorf("%w: missing tenant or role", ErrInvalidToken)
	}
	return claims, nil
}
