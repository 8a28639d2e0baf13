package auth

import (
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"go.uber.org/zap"
)

type Middleware struct {
	keys      *keyset.KeySet
	verifiers []*keyset.Verifier
	devBypass bool
	log       *zap.Logger

	// networkFallback lets a cache miss fall through to the blocking path.
	networkFallback bool
}

// Config controls a Middleware. Verifiers are tried in order; the first one
// that accepts the token wins.
type Config struct {
	Verifiers       []*keyset.Verifier
	NetworkFallback bool
	DevBypass       bool
}

func New(keys *keyset.KeySet, cfg Config, log *zap.Logger) *Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &Middleware{
		keys:            keys,
		verifiers:       cfg.Verifiers,
		devBypass:       cfg.DevBypass,
		networkFallback: cfg.NetworkFallback,
		log:             log,
	}
}
