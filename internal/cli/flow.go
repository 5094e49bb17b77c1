package cli

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/otpgate/internal/ui"
	"github.com/spf13/cobra"
)

func newFlowCmd(a *app) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Interactive request-and-verify flow",
		Long:  "flow asks for an email address or phone number, sends a code and lets you type or paste it. ctrl+r sends a new code.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			identity, err := ui.Run(ui.Options{
				Client:  a.client(),
				Timeout: a.timeout,
				Target:  target,
				In:      a.stdin,
				Out:     a.stdout,
			})
			if err != nil {
				return err
			}
			if identity == nil {
				return errors.New("verification not completed")
			}
			if a.output == "json" {
				return writeJSON(a.stdout, identity)
			}
			fmt.Fprintf(a.stdout, "verified %s %s (user %s)\n", identity.TargetKind, identity.Target, identity.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "prefill the email address or phone number")
	return cmd
}
