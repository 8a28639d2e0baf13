package auth

import "github.com/golang-jwt/jwt/v5"

// Principal is the verified caller attached to a request context.
type Principal struct {
	Subject  string        `json:"sub"`
	Username string        `json:"username,omitempty"`
	TokenUse string        `json:"token_use"`
	ClientID string        `json:"client_id,omitempty"`
	Groups   []string      `json:"groups,omitempty"`
	Claims   jwt.MapClaims `json:"claims,omitempty"`
}

type contextKey struct{ name string }

var principalCtxKey = &contextKey{"principal"}
