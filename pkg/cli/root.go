// Package cli implements keysetctl, a command line client for one user pool's
// key set.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeydtaylor/steeze-keyset/pkg/config"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	region  string
	poolID  string
	jwksURL string
	timeout time.Duration
	verbose bool
}

func (g *globalFlags) keySet(log *zap.Logger) (*keyset.KeySet, error) {
	client := keyset.DefaultHTTPClient()
	client.Timeout = g.timeout
	opts := []keyset.Option{keyset.WithHTTPClient(client), keyset.WithLogger(log)}
	if g.jwksURL != "" {
		opts = append(opts, keyset.WithJWKSURL(g.jwksURL))
	}
	return keyset.New(g.region, g.poolID, opts...)
}

func (g *globalFlags) logger(w io.Writer) *zap.Logger {
	if !g.verbose {
		return zap.NewNop()
	}
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}

func (g *globalFlags) context(parent context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, g.timeout)
}

// NewRootCmd builds the keysetctl command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "keysetctl",
		Short: "Inspect a user pool key set and verify tokens against it",
		Long: `keysetctl downloads the JWKS of a user pool and verifies RS256 tokens
with the same cache and refresh rules the keyset service uses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.region, "region", os.Getenv(config.EnvRegion), "user pool region (env "+config.EnvRegion+")")
	pf.StringVar(&g.poolID, "pool-id", os.Getenv(config.EnvPoolID), "user pool id (env "+config.EnvPoolID+")")
	pf.StringVar(&g.jwksURL, "jwks-url", os.Getenv(config.EnvJWKSURL), "override the derived JWKS endpoint")
	pf.DurationVar(&g.timeout, "timeout", 8*time.Second, "network timeout")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log key set activity to stderr")

	root.AddCommand(newKeysCmd(g), newVerifyCmd(g))
	return root
}

// Execute runs keysetctl and exits non-zero on failure.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", describe(err))
		os.Exit(1)
	}
}

func describe(err error) string {
	var ke *keyset.Error
	if errors.As(err, &ke) {
		return fmt.Sprintf("%s (%s)", err, ke.Kind)
	}
	return err.Error()
}
