package keyset

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeySet(t *testing.T, srv *jwksServer, opts ...Option) *KeySet {
	t.Helper()
	opts = append([]Option{WithJWKSURL(srv.URL), WithHTTPClient(srv.Client())}, opts...)
	ks, err := New(testRegion, testPool, opts...)
	require.NoError(t, err)
	return ks
}

func TestNewDerivesEndpoints(t *testing.T) {
	ks, err := New("us-east-1", "us-east-1_AbC")
	require.NoError(t, err)
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_AbC/.well-known/jwks.json", ks.JWKSURL())
	assert.Equal(t, "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_AbC", ks.Issuer())
	assert.Equal(t, "us-east-1", ks.Region())
	assert.Equal(t, "us-east-1_AbC", ks.PoolID())
	assert.Equal(t, DefaultMinFetchInterval, ks.MinFetchInterval())

	ks.SetMinFetchInterval(time.Minute)
	assert.Equal(t, time.Minute, ks.MinFetchInterval())
}

func TestNewRequiresIdentifiers(t *testing.T) {
	_, err := New("", "pool")
	assert.Error(t, err)
	_, err = New("region", "  ")
	assert.Error(t, err)
}

// Cache empty, endpoint serves kid "abc": resolving "abc" fetches once and an
// immediate miss on "xyz" is throttled without another request.
func TestVerifyThenThrottledMiss(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()

	claims, err := ks.Verify(context.Background(), signToken(t, a, "abc", idClaims(ks.Issuer())), v)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, 1, srv.Hits())

	_, err = ks.Verify(context.Background(), signToken(t, a, "xyz", idClaims(ks.Issuer())), v)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, "Error fetching JWKS key set: Key set is currently unreachable (throttled)", err.Error())
	assert.Equal(t, 1, srv.Hits())
}

func TestVerifyAccessToken(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewAccessTokenVerifier("other", testClientID).Build()

	claims, err := ks.Verify(context.Background(), signToken(t, a, "abc", accessClaims(ks.Issuer())), v)
	require.NoError(t, err)
	assert.Equal(t, "access", claims["token_use"])

	// An ID token does not satisfy the access-token predicates.
	idv := ks.NewIDTokenVerifier(testClientID).Build()
	_, err = ks.Verify(context.Background(), signToken(t, a, "abc", accessClaims(ks.Issuer())), idv)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestVerifyNoKeyIDBeforeAnyIO(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()

	_, err := ks.Verify(context.Background(), signToken(t, a, "", idClaims(ks.Issuer())), v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoKeyID)
	assert.Equal(t, 0, srv.Hits())

	// A non-string kid is no better.
	hdr := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","kid":42}`))
	_, err = ks.TryVerify(hdr+".e30.sig", v)
	assert.ErrorIs(t, err, ErrNoKeyID)
	assert.Equal(t, 0, srv.Hits())

	// Nor is an empty one, on either path.
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, idClaims(ks.Issuer()))
	tok.Header["kid"] = ""
	raw, err := tok.SignedString(a)
	require.NoError(t, err)
	_, err = ks.Verify(context.Background(), raw, v)
	assert.ErrorIs(t, err, ErrNoKeyID)
	_, err = ks.TryVerify(raw, v)
	assert.ErrorIs(t, err, ErrNoKeyID)
	assert.Equal(t, 0, srv.Hits())
}

func TestVerifyMalformedToken(t *testing.T) {
	ks, err := New(testRegion, testPool, WithFetcher(&fakeFetcher{}))
	require.NoError(t, err)
	v := NewVerifierBuilder().Build()

	for _, tok := range []string{"", "abc", "a.b", "!!!.e30.sig", base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".e30.sig"} {
		_, err := ks.Verify(context.Background(), tok, v)
		assert.Equal(t, KindMalformedToken, KindOf(err), "token %q", tok)
	}
}

func TestVerifyInvalidSignatureLeavesCache(t *testing.T) {
	a, b := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()
	require.NoError(t, ks.Prefetch(context.Background()))
	before := ks.Stats()

	// Signed by b but claims to be "abc".
	_, err := ks.Verify(context.Background(), signToken(t, b, "abc", idClaims(ks.Issuer())), v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, "JWT Signature Invalid", err.Error())

	assert.Equal(t, before, ks.Stats())
	assert.Equal(t, 1, srv.Hits())
}

func TestVerifyExpiredToken(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()

	exp := time.Now().Add(-time.Hour).Truncate(time.Second)
	claims := idClaims(ks.Issuer())
	claims["exp"] = exp.Unix()

	_, err := ks.Verify(context.Background(), signToken(t, a, "abc", claims), v)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindTokenExpired, e.Kind)
	assert.True(t, exp.Equal(e.ExpiredAt))
	assert.True(t, strings.HasPrefix(err.Error(), "JWT token expired at "))
}

func TestVerifyAlgorithmMismatch(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, idClaims(ks.Issuer()))
	tok.Header["kid"] = "abc"
	raw, err := tok.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = ks.Verify(context.Background(), raw, v)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindMalformedToken, e.Kind)
	assert.Equal(t, "Unexpected 'alg' algorithm specified", e.Desc)
}

func TestVerifyWrongIssuer(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()

	_, err := ks.Verify(context.Background(), signToken(t, a, "abc", idClaims("https://evil.example.com")), v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.Equal(t, `JWT claims invalid: claim "iss" did not match`, err.Error())
}

func TestTryVerifyNeverFetches(t *testing.T) {
	a, _ := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)
	v := ks.NewIDTokenVerifier(testClientID).Build()
	tok := signToken(t, a, "abc", idClaims(ks.Issuer()))

	_, err := ks.TryVerify(tok, v)
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindCacheMiss, e.Kind)
	assert.True(t, e.LastRefresh.IsZero())
	assert.Equal(t, 0, srv.Hits())
	assert.Equal(t, 0, ks.Stats().KeyCount)

	require.NoError(t, ks.Prefetch(context.Background()))
	claims, err := ks.TryVerify(tok, v)
	require.NoError(t, err)
	assert.Equal(t, "id", claims["token_use"])

	before := ks.Stats()
	_, err = ks.TryVerify(signToken(t, a, "xyz", idClaims(ks.Issuer())), v)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, before.LastRefresh, e.LastRefresh)
	assert.Equal(t, before, ks.Stats())
	assert.Equal(t, 1, srv.Hits())
}

func TestPrefetchAlwaysFetches(t *testing.T) {
	a, b := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	ks := newTestKeySet(t, srv)

	require.NoError(t, ks.Prefetch(context.Background()))
	srv.setBody(jwksDoc(t, jwkJSON(t, "def", &b.PublicKey)))
	require.NoError(t, ks.Prefetch(context.Background()))
	assert.Equal(t, 2, srv.Hits())

	rec, ok := ks.Lookup("def")
	require.True(t, ok)
	assert.True(t, rec.PublicKey().Equal(&b.PublicKey))
	_, ok = ks.Lookup("abc")
	assert.True(t, ok)

	stats := ks.Stats()
	assert.Equal(t, []string{"abc", "def"}, stats.KeyIDs)
	assert.Equal(t, srv.URL, stats.URL)
	assert.False(t, stats.LastRefresh.IsZero())
}

func TestPrefetchNetworkError(t *testing.T) {
	srv := newJWKSServer(t, []byte("not json"))
	ks := newTestKeySet(t, srv)

	err := ks.Prefetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, strings.HasPrefix(err.Error(), "Error fetching JWKS key set: "))
}

func TestVerifyWithClockOption(t *testing.T) {
	a, b := testKeys(t)
	srv := newJWKSServer(t, jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey)))
	clk := newFakeClock()
	ks := newTestKeySet(t, srv, WithClock(clk.Now), WithMinFetchInterval(time.Minute))
	v := ks.NewIDTokenVerifier(testClientID).Build()

	require.NoError(t, ks.Prefetch(context.Background()))
	srv.setBody(jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey), jwkJSON(t, "def", &b.PublicKey)))

	_, err := ks.Verify(context.Background(), signToken(t, b, "def", idClaims(ks.Issuer())), v)
	assert.ErrorIs(t, err, ErrThrottled)

	clk.Advance(time.Minute)
	_, err = ks.Verify(context.Background(), signToken(t, b, "def", idClaims(ks.Issuer())), v)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits())
}
