package keyset

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

const (
	testRegion   = "eu-west-1"
	testPool     = "eu-west-1_TestPool"
	testClientID = "client-123"
)

var (
	keyOnce sync.Once
	keyA    *rsa.PrivateKey
	keyB    *rsa.PrivateKey
)

// testKeys generates two RSA keys once per test binary.
func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		keyA, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		keyB, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
	})
	return keyA, keyB
}

// jwkJSON renders a public RSA key as a JWK element.
func jwkJSON(t *testing.T, kid string, pub *rsa.PublicKey) json.RawMessage {
	t.Helper()
	k, err := jwk.FromRaw(pub)
	require.NoError(t, err)
	require.NoError(t, k.Set(jwk.KeyIDKey, kid))
	require.NoError(t, k.Set(jwk.AlgorithmKey, jwa.RS256))
	require.NoError(t, k.Set(jwk.KeyUsageKey, "sig"))
	b, err := json.Marshal(k)
	require.NoError(t, err)
	return b
}

func jwksDoc(t *testing.T, elems ...json.RawMessage) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{"keys": elems})
	require.NoError(t, err)
	return b
}

// jwksServer serves a fixed document and counts requests.
type jwksServer struct {
	*httptest.Server
	hits atomic.Int32

	mu   sync.Mutex
	body []byte
}

func newJWKSServer(t *testing.T, body []byte) *jwksServer {
	t.Helper()
	s := &jwksServer{body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		s.mu.Lock()
		b := s.body
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *jwksServer) setBody(b []byte) {
	s.mu.Lock()
	s.body = b
	s.mu.Unlock()
}

func (s *jwksServer) Hits() int { return int(s.hits.Load()) }

// signToken mints an RS256 token; an empty kid leaves the header without one.
func signToken(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(priv)
	require.NoError(t, err)
	return s
}

func idClaims(issuer string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":       "user-1",
		"iss":       issuer,
		"aud":       testClientID,
		"token_use": "id",
		"exp":       time.Now().Add(time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}
}

func accessClaims(issuer string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":       "user-1",
		"iss":       issuer,
		"client_id": testClientID,
		"token_use": "access",
		"scope":     "openid",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
}

// fakeFetcher returns fixed records and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	records []*KeyRecord
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context) ([]*KeyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(records []*KeyRecord, err error) {
	f.mu.Lock()
	f.records, f.err = records, err
	f.mu.Unlock()
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
