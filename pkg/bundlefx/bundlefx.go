// Package bundlefx groups the HTTP middleware modules every keyset service needs.
package bundlefx

import (
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-keyset/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides the system and access loggers, the /metrics handler with
// the key set observer, and the bearer auth middleware. It expects a
// logger.Options, a config.Config and a *keyset.KeySet in the graph.
var Module = fx.Options(
	logger.Module,
	metrics.Module,
	auth.Module,
)
