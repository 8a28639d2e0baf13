package keyset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	jwksURLFormat = "https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json"
	issuerFormat  = "https://cognito-idp.%s.amazonaws.com/%s"
)

// KeySet verifies tokens issued by one user pool. Each KeySet owns its cache,
// so differently configured pools never share keys.
type KeySet struct {
	region  string
	poolID  string
	jwksURL string
	issuer  string

	resolver *Resolver
}

// New builds a KeySet for region and poolID. No network I/O happens until the
// first Verify or Prefetch.
func New(region, poolID string, opts ...Option) (*KeySet, error) {
	region = strings.TrimSpace(region)
	poolID = strings.TrimSpace(poolID)
	if region == "" {
		return nil, errors.New("keyset: region is required")
	}
	if poolID == "" {
		return nil, errors.New("keyset: pool id is required")
	}

	o := options{minInterval: DefaultMinFetchInterval}
	for _, opt := range opts {
		opt(&o)
	}

	ks := &KeySet{
		region:  region,
		poolID:  poolID,
		jwksURL: fmt.Sprintf(jwksURLFormat, region, poolID),
		issuer:  fmt.Sprintf(issuerFormat, region, poolID),
	}
	if o.jwksURL != "" {
		ks.jwksURL = o.jwksURL
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(ks.jwksURL, o.client)
	}

	r := NewResolver(NewCache(), fetcher)
	r.SetMinInterval(o.minInterval)
	if o.now != nil {
		r.now = o.now
	}
	if o.observer != nil {
		r.observer = o.observer
	}
	if o.log != nil {
		r.log = o.log.With(zap.String("jwks", ks.jwksURL))
	}
	ks.resolver = r
	return ks, nil
}

func (ks *KeySet) Region() string  { return ks.region }
func (ks *KeySet) PoolID() string  { return ks.poolID }
func (ks *KeySet) JWKSURL() string { return ks.jwksURL }
func (ks *KeySet) Issuer() string  { return ks.issuer }

// SetMinFetchInterval changes the refresh throttle window. Safe to call while
// verifications are in flight.
func (ks *KeySet) SetMinFetchInterval(d time.Duration) { ks.resolver.SetMinInterval(d) }

func (ks *KeySet) MinFetchInterval() time.Duration { return ks.resolver.MinInterval() }

// NewIDTokenVerifier returns a builder pre-configured for ID tokens. It can be
// extended with further claim predicates before Build.
func (ks *KeySet) NewIDTokenVerifier(clientIDs ...string) *VerifierBuilder {
	return NewVerifierBuilder().
		ClaimEquals("iss", ks.issuer).
		ClaimEqualsOneOf("aud", clientIDs...).
		ClaimEquals("token_use", "id")
}

// NewAccessTokenVerifier returns a builder pre-configured for access tokens.
func (ks *KeySet) NewAccessTokenVerifier(clientIDs ...string) *VerifierBuilder {
	return NewVerifierBuilder().
		ClaimEquals("iss", ks.issuer).
		ClaimEqualsOneOf("client_id", clientIDs...).
		ClaimEquals("token_use", "access")
}

// Verify resolves the token's key, fetching the key set when the cache misses
// and the throttle allows it, then verifies signature and claims.
func (ks *KeySet) Verify(ctx context.Context, token string, v *Verifier) (jwt.MapClaims, error) {
	kid, err := keyIDFromToken(token)
	if err != nil {
		return nil, err
	}
	rec, err := ks.resolver.Resolve(ctx, kid)
	if err != nil {
		return nil, err
	}
	return v.Verify(token, rec)
}

// TryVerify is Verify restricted to cached keys. It never performs network
// I/O and fails with KindCacheMiss when the key is not cached.
func (ks *KeySet) TryVerify(token string, v *Verifier) (jwt.MapClaims, error) {
	kid, err := keyIDFromToken(token)
	if err != nil {
		return nil, err
	}
	rec, err := ks.resolver.TryResolve(kid)
	if err != nil {
		return nil, err
	}
	return v.Verify(token, rec)
}

// Prefetch downloads and caches the key set regardless of the throttle.
func (ks *KeySet) Prefetch(ctx context.Context) error {
	return ks.resolver.Refresh(ctx)
}

// Lookup returns a cached key without any network I/O.
func (ks *KeySet) Lookup(kid string) (*KeyRecord, bool) {
	return ks.resolver.Cache().Lookup(kid)
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	URL              string    `json:"url"`
	KeyCount         int       `json:"key_count"`
	KeyIDs           []string  `json:"key_ids"`
	LastRefresh      time.Time `json:"last_refresh"`
	MinFetchInterval string    `json:"min_fetch_interval"`
}

func (ks *KeySet) Stats() Stats {
	c := ks.resolver.Cache()
	ids := c.IDs()
	last, _ := c.LastRefresh()
	return Stats{
		URL:              ks.jwksURL,
		KeyCount:         len(ids),
		KeyIDs:           ids,
		LastRefresh:      last,
		MinFetchInterval: ks.MinFetchInterval().String(),
	}
}
