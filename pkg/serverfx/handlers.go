package serverfx

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joeydtaylor/steeze-keyset/pkg/codec"
	"github.com/joeydtaylor/steeze-keyset/pkg/config"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-keyset/pkg/transport/httpx"
	"go.uber.org/zap"
)

// Handlers serves the verification API on top of one KeySet.
type Handlers struct {
	keys       *keyset.KeySet
	verifiers  map[string]*keyset.Verifier
	defaultUse string
	admins     []string
	timeout    time.Duration
	auth       *auth.Middleware
	log        *zap.Logger
}

func NewHandlers(cfg config.Config, ks *keyset.KeySet, am *auth.Middleware, log *zap.Logger) *Handlers {
	h := &Handlers{
		keys:      ks,
		verifiers: make(map[string]*keyset.Verifier, 2),
		admins:    cfg.Auth.AdminGroups,
		timeout:   cfg.KeySet.FetchTimeout.D() + 2*time.Second,
		auth:      am,
		log:       log.Named("api"),
	}
	for _, use := range []string{"id", "access"} {
		h.verifiers[use] = auth.VerifiersFor(ks, []string{use}, cfg.KeySet.ClientIDs)[0]
	}
	h.defaultUse = "access"
	if len(cfg.Auth.TokenUses) > 0 {
		h.defaultUse = cfg.Auth.TokenUses[0]
	}
	return h
}

// Register mounts every route on r.
func (h *Handlers) Register(r httpx.Router, metrics http.Handler) {
	r.Get("/healthz", http.HandlerFunc(h.healthz))
	r.Get("/metrics", metrics)

	// Only these two may block on the network.
	bounded := r.With(httpx.Timeout(h.timeout))
	bounded.Post("/v1/verify", http.HandlerFunc(h.verify))
	if len(h.admins) > 0 {
		bounded = bounded.With(h.auth.RequireGroups(h.admins...))
	}
	bounded.Post("/v1/prefetch", http.HandlerFunc(h.prefetch))

	r.Post("/v1/try-verify", http.HandlerFunc(h.tryVerify))
	r.Get("/v1/keys", http.HandlerFunc(h.listKeys))
	r.Get("/v1/keys/{kid}", http.HandlerFunc(h.getKey))

	r.With(h.auth.Require()).Get("/v1/me", http.HandlerFunc(h.me))
}

type verifyRequest struct {
	Token string `json:"token"`
	Use   string `json:"use,omitempty"`
}

type verifyResponse struct {
	Valid  bool          `json:"valid"`
	Claims jwt.MapClaims `json:"claims,omitempty"`
}

type errorResponse struct {
	Error       string     `json:"error"`
	Kind        string     `json:"kind"`
	ExpiredAt   *time.Time `json:"expired_at,omitempty"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

func (h *Handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	codec.Write(codec.JSONStrict, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) verify(w http.ResponseWriter, r *http.Request) {
	req, v, ok := h.readVerify(w, r)
	if !ok {
		return
	}
	claims, err := h.keys.Verify(r.Context(), req.Token, v)
	h.writeVerify(w, claims, err)
}

func (h *Handlers) tryVerify(w http.ResponseWriter, r *http.Request) {
	req, v, ok := h.readVerify(w, r)
	if !ok {
		return
	}
	claims, err := h.keys.TryVerify(req.Token, v)
	h.writeVerify(w, claims, err)
}

func (h *Handlers) readVerify(w http.ResponseWriter, r *http.Request) (verifyRequest, *keyset.Verifier, bool) {
	var req verifyRequest
	if err := codec.ReadRequest(codec.JSONStrict, r, &req); err != nil {
		badRequest(w, err.Error())
		return req, nil, false
	}
	if req.Token == "" {
		badRequest(w, "token is required")
		return req, nil, false
	}
	if req.Use == "" {
		req.Use = h.defaultUse
	}
	v, ok := h.verifiers[req.Use]
	if !ok {
		badRequest(w, `use must be "id" or "access"`)
		return req, nil, false
	}
	return req, v, true
}

func (h *Handlers) writeVerify(w http.ResponseWriter, claims jwt.MapClaims, err error) {
	if err != nil {
		h.log.Debug("token rejected", zap.String("kind", keyset.KindOf(err).String()), zap.Error(err))
		writeError(w, err)
		return
	}
	codec.Write(codec.JSONStrict, w, http.StatusOK, verifyResponse{Valid: true, Claims: claims})
}

func (h *Handlers) listKeys(w http.ResponseWriter, _ *http.Request) {
	codec.Write(codec.JSONStrict, w, http.StatusOK, h.keys.Stats())
}

type keyResponse struct {
	KID       string `json:"kid"`
	Algorithm string `json:"alg"`
	Bits      int    `json:"bits"`
}

func (h *Handlers) getKey(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.keys.Lookup(httpx.Param(r, "kid"))
	if !ok {
		writeError(w, &keyset.Error{Kind: keyset.KindCacheMiss})
		return
	}
	codec.Write(codec.JSONStrict, w, http.StatusOK, keyResponse{
		KID:       rec.ID(),
		Algorithm: string(rec.Algorithm()),
		Bits:      rec.PublicKey().N.BitLen(),
	})
}

func (h *Handlers) prefetch(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.Prefetch(r.Context()); err != nil {
		h.log.Warn("prefetch failed", zap.Error(err))
		writeError(w, err)
		return
	}
	codec.Write(codec.JSONStrict, w, http.StatusOK, h.keys.Stats())
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	codec.Write(codec.JSONStrict, w, http.StatusOK, h.auth.GetPrincipal(r.Context()))
}

// StatusFor maps a keyset error onto an HTTP status.
func StatusFor(err error) int {
	switch keyset.KindOf(err) {
	case keyset.KindNoKeyID, keyset.KindMalformedToken:
		return http.StatusBadRequest
	case keyset.KindInvalidSignature, keyset.KindTokenExpired:
		return http.StatusUnauthorized
	case keyset.KindCacheMiss:
		return http.StatusNotFound
	case keyset.KindNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := errorResponse{Error: err.Error(), Kind: keyset.KindOf(err).String()}
	var ke *keyset.Error
	if errors.As(err, &ke) {
		if !ke.ExpiredAt.IsZero() {
			body.ExpiredAt = &ke.ExpiredAt
		}
		if !ke.LastRefresh.IsZero() {
			body.LastRefresh = &ke.LastRefresh
		}
	}
	codec.Write(codec.JSONStrict, w, StatusFor(err), body)
}

func badRequest(w http.ResponseWriter, msg string) {
	codec.Write(codec.JSONStrict, w, http.StatusBadRequest, errorResponse{Error: msg, Kind: "bad_request"})
}
