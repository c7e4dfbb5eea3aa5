package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the identity asserted by the external auth collaborator.
// Tokens are issued elsewhere; this service only validates them.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
