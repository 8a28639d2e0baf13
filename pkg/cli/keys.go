package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newKeysCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Fetch the key set and list its RS256 keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := g.keySet(g.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			ctx, cancel := g.context(cmd.Context())
			defer cancel()
			if err := ks.Prefetch(ctx); err != nil {
				return err
			}

			st := ks.Stats()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprintf(out, "jwks:    %s\n", st.URL)
			fmt.Fprintf(out, "fetched: %s\n", st.LastRefresh.Format(time.RFC3339))
			for _, kid := range st.KeyIDs {
				rec, _ := ks.Lookup(kid)
				fmt.Fprintf(out, "  %s  %s  %d bits\n", kid, rec.Algorithm(), rec.PublicKey().N.BitLen())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print stats as JSON")
	return cmd
}
