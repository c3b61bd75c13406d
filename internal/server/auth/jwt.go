// Package auth issues and validates the HS256 access tokens carried on API
// requests.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrasovska/nutritrack/internal/common"
	"github.com/mkrasovska/nutritrack/internal/server/models"
)

// Claims carries the standard registered claims plus the account identity
// the handlers gate on.
type Claims struct {
	jwt.RegisteredClaims
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// Identity is the authenticated caller extracted from a valid token.
type Identity struct {
	UID   string
	Email string
	Role  models.Role
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UID:   id.UID,
		Email: id.Email,
		Role:  id.Role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func GetIdentityFromToken(tokenString string, secretKey []byte) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &Identity{UID: claims.UID, Email: claims.Email, Role: claims.Role}, nil
}
