package serverfx

import (
	"github.com/joeydtaylor/steeze-keyset/pkg/config"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"go.uber.org/zap"
)

func provideKeySet(cfg config.Config, ob keyset.Observer, log *zap.Logger) (*keyset.KeySet, error) {
	client := keyset.DefaultHTTPClient()
	client.Timeout = cfg.KeySet.FetchTimeout.D()

	opts := []keyset.Option{
		keyset.WithHTTPClient(client),
		keyset.WithMinFetchInterval(cfg.KeySet.MinFetchInterval.D()),
		keyset.WithObserver(ob),
		keyset.WithLogger(log.Named("keyset")),
	}
	if cfg.KeySet.JWKSURL != "" {
		opts = append(opts, keyset.WithJWKSURL(cfg.KeySet.JWKSURL))
	}
	return keyset.New(cfg.KeySet.Region, cfg.KeySet.PoolID, opts...)
}
