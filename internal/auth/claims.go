package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// BearerType is the token_type constant returned by the auth API.
// Not to be confused with TokenType, which distinguishes access from refresh.
const BearerType = "Bearer"

// Claims are the only supported JWT claims shape for this service.
// Access tokens carry the viewer's role; refresh tokens deliberately do not,
// so a leaked refresh token alone can never satisfy a role check.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	SessionID string    `json:"sid"`
	TokenType TokenType `json:"token_type"`
}
