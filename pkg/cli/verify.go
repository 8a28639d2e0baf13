package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joeydtaylor/steeze-keyset/pkg/keyset"
	"github.com/spf13/cobra"
)

type verifyFlags struct {
	use       string
	clientIDs []string
	offline   bool
}

func newVerifyCmd(g *globalFlags) *cobra.Command {
	f := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify <token|->",
		Short: "Verify a token and print its claims",
		Long: `verify checks the token signature against the pool's key set and the
standard issuer, audience and token_use claims. Pass "-" to read the token
from stdin.

With --offline the key set is fetched once up front and the token is then
verified against the cache only, exactly like the service's try-verify path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			ks, err := g.keySet(g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			v, err := f.verifier(ks)
			if err != nil {
				return err
			}

			ctx, cancel := g.context(cmd.Context())
			defer cancel()

			var claims jwt.MapClaims
			if f.offline {
				if err := ks.Prefetch(ctx); err != nil {
					return err
				}
				claims, err = ks.TryVerify(token, v)
			} else {
				claims, err = ks.Verify(ctx, token, v)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}
	cmd.Flags().StringVar(&f.use, "use", "access", `token kind: "id" or "access"`)
	cmd.Flags().StringSliceVar(&f.clientIDs, "client-id", nil, "accepted app client id (repeatable)")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "verify against a single prefetch, never refetch")
	_ = cmd.MarkFlagRequired("client-id")
	return cmd
}

func (f *verifyFlags) verifier(ks *keyset.KeySet) (*keyset.Verifier, error) {
	switch f.use {
	case "id":
		return ks.NewIDTokenVerifier(f.clientIDs...).Build(), nil
	case "access":
		return ks.NewAccessTokenVerifier(f.clientIDs...).Build(), nil
	default:
		return nil, fmt.Errorf("unknown token use %q", f.use)
	}
}

func readToken(arg string, stdin io.Reader) (string, error) {
	if arg != "-" {
		return strings.TrimSpace(arg), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no token on stdin")
	}
	return line, nil
}
