package auth

import (
	"github.com/joeydtaylor/steeze-keyset/pkg/config"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// VerifiersFor builds one verifier per accepted token use ("id", "access").
func VerifiersFor(ks *keyset.KeySet, uses []string, clientIDs []string) []*keyset.Verifier {
	var out []*keyset.Verifier
	for _, u := range uses {
		switch u {
		case "id":
			out = append(out, ks.NewIDTokenVerifier(clientIDs...).Build())
		case "access":
			out = append(out, ks.NewAccessTokenVerifier(clientIDs...).Build())
		}
	}
	return out
}

// ProvideAuthentication wires the bearer middleware from configuration.
func ProvideAuthentication(cfg config.Config, ks *keyset.KeySet, log *zap.Logger) *Middleware {
	return New(ks, Config{
		Verifiers:       VerifiersFor(ks, cfg.Auth.TokenUses, cfg.KeySet.ClientIDs),
		NetworkFallback: cfg.Auth.NetworkFallback,
		DevBypass:       cfg.Auth.DevBypass,
	}, log.Named("auth"))
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
