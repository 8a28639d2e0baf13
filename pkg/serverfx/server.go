package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/joeydtaylor/steeze-keyset/pkg/config"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const prefetchTimeout = 10 * time.Second

// provideRouter installs auth ahead of the access log and metrics so both see
// the verified principal. Routes that demand one add Require per route.
func provideRouter(d routerDeps) http.Handler {
	metrics.AddMetricsSkipPaths(d.Config.Metrics.SkipPaths...)
	d.R.Use(d.AuthMW.Middleware(), d.LogMW.Middleware(d.AuthMW), metrics.Collect(d.AuthMW))
	d.Handlers.Register(d.R, d.Metrics)
	return d.R.Mux()
}

type serverDeps struct {
	fx.In
	Opts   Options
	Config config.Config
	Keys   *keyset.KeySet
	Logger *zap.Logger
	App    http.Handler `name:"app"`
}

func newServer(cfg config.Server, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Listen,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	srv := newServer(d.Config.Server, d.App)
	cert, key := d.Config.Server.TLSCert, d.Config.Server.TLSKey
	useTLS := fileExists(cert) && fileExists(key)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if d.Config.KeySet.PrefetchOnStart {
				prefetch(d.Keys, d.Logger)
			}

			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", d.Opts.Service),
					zap.String("addr", srv.Addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			} else {
				d.Logger.Info("server starting (PLAINTEXT)",
					zap.String("service", d.Opts.Service),
					zap.String("addr", srv.Addr),
				)
				go func() {
					srv.TLSConfig = nil
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Opts.Service))
			return srv.Shutdown(ctx)
		},
	})
}

// prefetch warms the cache. Failure is logged, not fatal: the first miss will
// fetch again.
func prefetch(ks *keyset.KeySet, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
	defer cancel()
	if err := ks.Prefetch(ctx); err != nil {
		log.Warn("key set prefetch failed", zap.String("jwks", ks.JWKSURL()), zap.Error(err))
		return
	}
	st := ks.Stats()
	log.Info("key set prefetched", zap.String("jwks", st.URL), zap.Strings("kids", st.KeyIDs))
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
