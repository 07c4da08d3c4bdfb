package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role the admin surface accepts.
const RoleAdmin = "admin"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Subject string
	Role    string
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to the operator.
type AccessTokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
