package keyset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherKeepsOnlyRS256(t *testing.T) {
	a, b := testKeys(t)
	doc := jwksDoc(t,
		jwkJSON(t, "abc", &a.PublicKey),
		jwkJSON(t, "def", &b.PublicKey),
		json.RawMessage(`{"kid":"ed","alg":"EdDSA","kty":"OKP","crv":"Ed25519","x":"11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}`),
		json.RawMessage(`{"kid":"future","alg":"PQ999","kty":"NEW","material":"zzz"}`),
		json.RawMessage(`{"alg":"RS256","kty":"RSA"}`),
	)
	srv := newJWKSServer(t, doc)

	recs, err := NewHTTPFetcher(srv.URL, srv.Client()).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	byID := map[string]*KeyRecord{}
	for _, r := range recs {
		byID[r.ID()] = r
	}
	require.Contains(t, byID, "abc")
	require.Contains(t, byID, "def")
	assert.True(t, byID["abc"].PublicKey().Equal(&a.PublicKey))
	assert.True(t, byID["def"].PublicKey().Equal(&b.PublicKey))
	assert.Equal(t, RS256, byID["abc"].Algorithm())
	assert.Equal(t, 1, srv.Hits())
}

func TestHTTPFetcherConditionalRequest(t *testing.T) {
	a, _ := testKeys(t)
	doc := jwksDoc(t, jwkJSON(t, "abc", &a.PublicKey))

	var sawETag []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawETag = append(sawETag, r.Header.Get("If-None-Match"))
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(doc)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, srv.Client())
	recs, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, []string{"", `"v1"`}, sawETag)
}

func TestHTTPFetcherErrors(t *testing.T) {
	a, _ := testKeys(t)
	good := jwkJSON(t, "abc", &a.PublicKey)

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops"},
		{name: "not json", status: http.StatusOK, body: "<html>"},
		{name: "bad rs256 material", status: http.StatusOK, body: `{"keys":[` + string(good) + `,{"kid":"x","alg":"RS256","kty":"RSA","n":"!!","e":"AQAB"}]}`},
		{name: "rs256 with ec type", status: http.StatusOK, body: `{"keys":[{"kid":"x","alg":"RS256","kty":"EC","crv":"P-256","x":"f83OJ3D2xF1Bg8vub9tLe1gHMzV76e8Tus9uPHvRVEU","y":"x_FEzRu9m36HLN_tue659LNpXW6pCyStikYjKIWI5a0"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			recs, err := NewHTTPFetcher(srv.URL, srv.Client()).Fetch(context.Background())
			assert.Error(t, err)
			assert.Nil(t, recs)
		})
	}
}

func TestHTTPFetcherUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(url, nil).Fetch(context.Background())
	assert.Error(t, err)
}
