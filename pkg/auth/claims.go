package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/netbill/isp-billing/pkg/enums"
)

var errMalformedIdentity = errors.New("token identity is malformed")

// AccessTokenPayload is the identity stamped into a new access token.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     enums.UserRole
	JTI      string
}

// AccessTokenClaims is the signed body of an access token.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	Username string         `json:"username"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claim checks during parsing.
func (c AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil || !c.Role.IsValid() {
		return errMalformedIdentity
	}
	if c.Subject != "" && c.Subject != c.UserID.String() {
		return errMalformedIdentity
	}
	return nil
}

var _ jwt.ClaimsValidator = AccessTokenClaims{}
