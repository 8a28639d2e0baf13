package keyset

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errAlgorithmMismatch = errors.New("token alg does not match key algorithm")
	errKeyIDMismatch     = errors.New("token kid does not match key id")
)

type predicate struct {
	claim  string
	values []string
}

// match accepts a string claim equal to one of values, or an array claim
// (e.g. a multi-valued "aud") with at least one such element.
func (p predicate) match(claims jwt.MapClaims) bool {
	switch v := claims[p.claim].(type) {
	case string:
		return slices.Contains(p.values, v)
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && slices.Contains(p.values, s) {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if slices.Contains(p.values, s) {
				return true
			}
		}
	}
	return false
}

// VerifierBuilder collects claim predicates. Adding a predicate for a claim
// that already has one replaces it.
type VerifierBuilder struct {
	preds  []predicate
	leeway time.Duration
}

func NewVerifierBuilder() *VerifierBuilder {
	return &VerifierBuilder{}
}

func (b *VerifierBuilder) ClaimEquals(claim, value string) *VerifierBuilder {
	return b.ClaimEqualsOneOf(claim, value)
}

func (b *VerifierBuilder) ClaimEqualsOneOf(claim string, values ...string) *VerifierBuilder {
	p := predicate{claim: claim, values: slices.Clone(values)}
	for i := range b.preds {
		if b.preds[i].claim == claim {
			b.preds[i] = p
			return b
		}
	}
	b.preds = append(b.preds, p)
	return b
}

// Leeway tolerates clock skew when checking exp and nbf.
func (b *VerifierBuilder) Leeway(d time.Duration) *VerifierBuilder {
	b.leeway = d
	return b
}

func (b *VerifierBuilder) Build() *Verifier {
	preds := make([]predicate, len(b.preds))
	copy(preds, b.preds)
	return &Verifier{preds: preds, leeway: b.leeway}
}

// Verifier checks a token's signature against a resolved key and evaluates
// its claim predicates. A Verifier is immutable and safe for concurrent use.
type Verifier struct {
	preds  []predicate
	leeway time.Duration
}

// Claims lists the claims this verifier constrains, in insertion order.
func (v *Verifier) Claims() []string {
	names := make([]string, len(v.preds))
	for i, p := range v.preds {
		names[i] = p.claim
	}
	return names
}

func (v *Verifier) Verify(token string, rec *KeyRecord) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithLeeway(v.leeway))

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method == nil || t.Method.Alg() != string(rec.Algorithm()) {
			return nil, errAlgorithmMismatch
		}
		// The resolver matched on kid already; checking again keeps a record
		// from ever verifying a token addressed to another key.
		if kid, _ := t.Header["kid"].(string); kid != rec.ID() {
			return nil, errKeyIDMismatch
		}
		return rec.PublicKey(), nil
	})
	if err != nil {
		return nil, translate(err, claims)
	}

	for _, p := range v.preds {
		if !p.match(claims) {
			return nil, malformed(fmt.Sprintf("claim %q did not match", p.claim), nil)
		}
	}
	return claims, nil
}

func translate(err error, claims jwt.MapClaims) *Error {
	switch {
	case errors.Is(err, errAlgorithmMismatch):
		return malformed("Unexpected 'alg' algorithm specified", err)
	case errors.Is(err, errKeyIDMismatch):
		return malformed("Unexpected 'kid' key id specified", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &Error{Kind: KindInvalidSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		e := &Error{Kind: KindTokenExpired, Err: err}
		if exp, _ := claims.GetExpirationTime(); exp != nil {
			e.ExpiredAt = exp.Time
		}
		return e
	case errors.Is(err, jwt.ErrTokenMalformed):
		return malformed("Malformed JWT", err)
	default:
		return malformed("Decode failure", err)
	}
}
