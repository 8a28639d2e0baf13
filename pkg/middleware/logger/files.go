package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go. A zero value logs to ./log at info level.
type Options struct {
	Dir   string
	Level string
	// Console also tees every entry to stdout.
	Console bool
}

func (o Options) dir() string {
	if strings.TrimSpace(o.Dir) == "" {
		return "log"
	}
	return o.Dir
}

func (o Options) level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil || o.Level == "" {
		return zap.InfoLevel
	}
	return lvl
}

// NewLog builds a JSON logger writing to <dir>/<name>, rotated by lumberjack.
func NewLog(o Options, name string) *zap.Logger {
	dir := o.dir()
	_ = os.MkdirAll(dir, 0o755)

	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	})

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, o.level()),
	}
	if o.Console {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stdout), o.level()))
	}
	return zap.New(zapcore.NewTee(cores...))
}
