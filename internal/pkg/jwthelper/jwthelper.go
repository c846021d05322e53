package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "artx-api"
	tokenTTL = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	UserAgent string `json:"user_agent"`

	jwt.RegisteredClaims
}

func GenerateToken(key []byte, accountID, role, userAgent string) (string, error) {
	return generateAt(key, accountID, role, userAgent, time.Now())
}

func generateAt(key []byte, accountID, role, userAgent string, now time.Time) (string, error) {
	claims := Claims{
		AccountID: accountID,
		Role:      role,
		UserAgent: userAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString -> %w", err)
	}

	return signed, nil
}

func ParseToken(key []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
