package logger

import (
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/auth"
	"go.uber.org/zap"
)

// Middleware writes one access log entry per request. Request bodies are
// never logged: they carry bearer tokens.
type Middleware struct {
	log *zap.Logger
}

func NewMiddleware(l *zap.Logger) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{log: l}
}

func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			start := time.Now()
			defer func() {
				// nil-safe auth lookups
				isAuth := false
				subject, tokenUse, clientID := "", "", ""
				if ca != nil {
					isAuth = ca.IsAuthenticated(r.Context())
					p := ca.GetPrincipal(r.Context())
					subject, tokenUse, clientID = p.Subject, p.TokenUse, p.ClientID
				}

				m.log.Info("request",
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpScheme", scheme),
					zap.Bool("isAuthenticated", isAuth),
					zap.String("subject", subject),
					zap.String("tokenUse", tokenUse),
					zap.String("clientId", clientID),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
