package keyset

import "crypto/rsa"

// Algorithm is a JWS algorithm tag as published in a JWKS "alg" field.
type Algorithm string

// RS256 is the only algorithm family the identity provider publishes.
const RS256 Algorithm = "RS256"

// KeyRecord is an immutable verification key. Records are shared between the
// cache and every caller that resolved them; the public key must not be modified.
type KeyRecord struct {
	id  string
	alg Algorithm
	key *rsa.PublicKey
}

// NewKeyRecord builds a record for an RSA public key.
func NewKeyRecord(id string, alg Algorithm, key *rsa.PublicKey) *KeyRecord {
	return &KeyRecord{id: id, alg: alg, key: key}
}

func (r *KeyRecord) ID() string                { return r.id }
func (r *KeyRecord) Algorithm() Algorithm      { return r.alg }
func (r *KeyRecord) PublicKey() *rsa.PublicKey { return r.key }

// Equal reports whether both records carry the same id, algorithm and key material.
func (r *KeyRecord) Equal(o *KeyRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.id != o.id || r.alg != o.alg {
		return false
	}
	if r.key == nil || o.key == nil {
		return r.key == o.key
	}
	return r.key.Equal(o.key)
}
