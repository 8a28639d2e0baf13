package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
)

var errNoVerifiers = errors.New("no token verifiers configured")

// verifyToken tries the cached keys first and only goes to the network when
// the key is missing and fallback is enabled.
func (m *Middleware) verifyToken(ctx context.Context, raw string) (Principal, error) {
	if len(m.verifiers) == 0 {
		return Principal{}, errNoVerifiers
	}

	var lastErr error
	for _, v := range m.verifiers {
		claims, err := m.keys.TryVerify(raw, v)
		if err != nil && m.networkFallback && keyset.KindOf(err) == keyset.KindCacheMiss {
			claims, err = m.keys.Verify(ctx, raw, v)
		}
		if err == nil {
			return principalFromClaims(claims), nil
		}
		lastErr = err
		// Only a predicate mismatch can be fixed by another verifier.
		if keyset.KindOf(err) != keyset.KindMalformedToken {
			break
		}
	}
	return Principal{}, lastErr
}

func principalFromClaims(c jwt.MapClaims) Principal {
	p := Principal{
		Subject:  str(c["sub"]),
		TokenUse: str(c["token_use"]),
		ClientID: str(c["client_id"]),
		Claims:   c,
	}
	// ID tokens carry cognito:username, access tokens carry username.
	p.Username = firstNonEmpty(str(c["cognito:username"]), str(c["username"]))
	if p.ClientID == "" {
		p.ClientID = str(c["aud"])
	}
	if groups, ok := c["cognito:groups"].([]any); ok {
		for _, g := range groups {
			if s, ok := g.(string); ok {
				p.Groups = append(p.Groups, s)
			}
		}
	}
	return p
}

func bearerToken(header string) string {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}
