package auth

import (
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Role   enums.Role
}

// AccessTokenClaims represents the typed JWT presented by clients. Token
// issuance lives in the identity service; this package only needs to mint
// (for tests and tooling) and verify.
type AccessTokenClaims struct {
	UserID int64      `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
