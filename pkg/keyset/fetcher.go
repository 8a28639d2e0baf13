package keyset

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Fetcher retrieves the remote key set. Implementations perform one network
// round trip per call and do not retry; the resolver's throttle bounds the rate.
type Fetcher interface {
	Fetch(ctx context.Context) ([]*KeyRecord, error)
}

// HTTPDoer is satisfied by *http.Client and allows easy mocking in tests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// DefaultHTTPClient mirrors the client settings used for key fetches elsewhere in steeze.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 30 * time.Second,
		},
		Timeout: 8 * time.Second,
	}
}

// HTTPFetcher downloads a JWKS document and keeps the RS256 keys.
type HTTPFetcher struct {
	url    string
	client HTTPDoer

	mu   sync.Mutex
	etag string
}

func NewHTTPFetcher(url string, client HTTPDoer) *HTTPFetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &HTTPFetcher{url: url, client: client}
}

func (f *HTTPFetcher) URL() string { return f.url }

// jwkSet keeps elements raw so keys of unknown algorithms or types never
// break decoding of the ones we understand.
type jwkSet struct {
	Keys []json.RawMessage `json:"keys"`
}

type jwkHeader struct {
	Kid string `json:"kid"`
	Alg string `json:"alg"`
}

// Fetch returns the RS256 keys of the remote set. A 304 answer to a
// conditional request yields no records and no error.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]*KeyRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	if etag := f.getETag(); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotModified {
		return nil, nil
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("key fetch %s: %s", f.url, res.Status)
	}

	var set jwkSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	records, err := parseKeys(set.Keys)
	if err != nil {
		return nil, err
	}

	f.setETag(strings.TrimSpace(res.Header.Get("ETag")))
	return records, nil
}

func parseKeys(raw []json.RawMessage) ([]*KeyRecord, error) {
	records := make([]*KeyRecord, 0, len(raw))
	for _, elem := range raw {
		var h jwkHeader
		if err := json.Unmarshal(elem, &h); err != nil {
			continue
		}
		if Algorithm(h.Alg) != RS256 || h.Kid == "" {
			continue
		}
		pub, err := rsaPublicKey(elem)
		if err != nil {
			return nil, fmt.Errorf("bad jwks key %q: %w", h.Kid, err)
		}
		records = append(records, NewKeyRecord(h.Kid, RS256, pub))
	}
	return records, nil
}

func rsaPublicKey(elem []byte) (*rsa.PublicKey, error) {
	key, err := jwk.ParseKey(elem)
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, err
	}
	pub, ok := raw.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return pub, nil
}

func (f *HTTPFetcher) getETag() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.etag
}

func (f *HTTPFetcher) setETag(etag string) {
	f.mu.Lock()
	f.etag = etag
	f.mu.Unlock()
}
