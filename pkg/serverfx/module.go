// Package serverfx assembles the keyset HTTP service as an Fx application.
package serverfx

import (
	"net/http"

	"github.com/joeydtaylor/steeze-keyset/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-keyset/pkg/config"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-keyset/pkg/transport/httpx"
	"go.uber.org/fx"
)

// Options allow per-deployment defaults without code duplication.
type Options struct {
	Service       string // for logs only
	DefaultConfig string // used when $KEYSET_CONFIG is unset
}

func defaultOptions() Options {
	return Options{Service: "keysetd", DefaultConfig: "keyset.toml"}
}

type Option func(*Options)

func WithService(s string) Option          { return func(o *Options) { o.Service = s } }
func WithDefaultConfig(path string) Option { return func(o *Options) { o.DefaultConfig = path } }

func provideConfig(o Options) (config.Config, error) {
	return config.Load(config.PathFromEnv(o.DefaultConfig))
}

func provideLogOptions(cfg config.Config) logger.Options {
	return logger.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: cfg.Log.Console}
}

// Module returns a complete Fx option set.
func Module(opts ...Option) fx.Option {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return fx.Options(
		fx.Supply(o),
		fx.Provide(provideConfig, provideLogOptions),

		// Middleware modules
		bundlefx.Module,

		fx.Provide(provideKeySet, NewHandlers),

		// Router implementation
		fx.Provide(httpx.NewChi),

		// Router (named "app")
		fx.Provide(fx.Annotate(
			provideRouter,
			fx.ResultTags(`name:"app"`),
		)),

		// App lifecycle (prefetch + HTTP server)
		fx.Invoke(registerHooks),
	)
}

type routerDeps struct {
	fx.In

	Config   config.Config
	Handlers *Handlers
	AuthMW   *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  http.Handler `name:"metrics"`
	R        httpx.Router
}
