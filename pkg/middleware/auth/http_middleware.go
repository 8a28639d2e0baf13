package auth

import (
	"encoding/json"
	"net/http"

	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"go.uber.org/zap"
)

func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dev bypass for local testing (NEVER enable in prod)
			if m.devBypass {
				if p := devPrincipalFromHeaders(r); p.Subject != "" {
					next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
					return
				}
			}

			raw := bearerToken(r.Header.Get("Authorization"))
			if raw == "" {
				// No credentials; continue unauthenticated
				next.ServeHTTP(w, r)
				return
			}

			p, err := m.verifyToken(r.Context(), raw)
			if err != nil {
				m.log.Debug("bearer token rejected",
					zap.String("kind", keyset.KindOf(err).String()),
					zap.Error(err),
				)
				unauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Require rejects requests that reached it without a verified principal.
func (m *Middleware) Require() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.IsAuthenticated(r.Context()) {
				unauthorized(w, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGroups admits verified principals in at least one of groups.
// Unauthenticated requests get 401, authenticated outsiders 403.
func (m *Middleware) RequireGroups(groups ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.IsAuthenticated(r.Context()) {
				unauthorized(w, nil)
				return
			}
			if len(groups) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			for _, g := range groups {
				if m.InGroup(r.Context(), g) {
					next.ServeHTTP(w, r)
					return
				}
			}
			forbidden(w)
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden"})
}

func unauthorized(w http.ResponseWriter, err error) {
	body := map[string]string{"error": "unauthorized"}
	if err != nil {
		body["kind"] = keyset.KindOf(err).String()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="steeze"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(body)
}
