package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Logs holds the two application loggers.
type Logs struct {
	fx.Out

	System *zap.Logger
	Access *zap.Logger `name:"access"`
}

func ProvideLogs(o Options) Logs {
	return Logs{
		System: NewLog(o, "system.log"),
		Access: NewLog(o, "http-access.log"),
	}
}

type middlewareIn struct {
	fx.In
	Access *zap.Logger `name:"access"`
}

func ProvideLoggerMiddleware(in middlewareIn) *Middleware { return NewMiddleware(in.Access) }

var Module = fx.Options(
	fx.Provide(ProvideLogs),
	fx.Provide(ProvideLoggerMiddleware),
)
