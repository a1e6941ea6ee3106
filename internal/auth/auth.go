// Package auth mints and validates a bearer token identifying this
// client instance, attached to outbound KeyRequest/KeyAddressRequest
// envelopes when configured, for deployments that terminate client
// auth at the worker/routing tier.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the client instance that minted a token.
type Claims struct {
	InstanceID string `json:"instance_id"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates HS256-signed bearer tokens.
type TokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewTokenManager constructs a TokenManager signing with secretKey.
// Tokens are valid for one hour from minting.
func NewTokenManager(secretKey string) *TokenManager {
	return &TokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: time.Hour,
	}
}

// GenerateToken mints a bearer token for instanceID.
func (tm *TokenManager) GenerateToken(instanceID string) (string, error) {
	claims := Claims{
		InstanceID: instanceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ValidateToken verifies and parses a bearer token minted by
// GenerateToken.
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return tm.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
