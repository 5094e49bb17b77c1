package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/otpflow"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/spf13/cobra"
)

func newRequestCmd(a *app) *cobra.Command {
	var email, phone string
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Send a code to an email address or phone number",
		Example: `  otpctl request --email user@example.com
  otpctl request --phone +61400000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (email == "") == (phone == "") {
				return otpflow.ErrInvalidTarget
			}
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			res, err := a.client().CreateChallenge(ctx, otpsdk.CreateChallengeRequest{Email: email, Phone: phone})
			if err != nil {
				return err
			}
			return a.printChallenge(res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address to send the code to")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number in E.164 form")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "verify <challenge-id> <code>",
		Short:   "Submit a code for a challenge",
		Example: "  otpctl verify 01J9Z3YJ3X4M0S5W6Q7R8T9V0A 123456",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in otpflow.CodeInput
			if err := in.Paste(args[1]); err != nil {
				return err
			}
			code, err := in.Code()
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			res, err := a.client().Verify(ctx, otpsdk.VerifyRequest{ChallengeID: args[0], Code: code})
			if err != nil {
				return describeError(err)
			}
			if a.output == "json" {
				return writeJSON(a.stdout, res)
			}
			fmt.Fprintf(a.stdout, "verified %s %s\n", res.Identity.TargetKind, res.Identity.Target)
			fmt.Fprintf(a.stdout, "user_id:     %s\n", res.Identity.UserID)
			fmt.Fprintf(a.stdout, "verified_at: %s\n", res.Identity.VerifiedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newResendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resend <challenge-id>",
		Short: "Replace a challenge with a fresh code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			res, err := a.client().Resend(ctx, otpsdk.ResendRequest{ChallengeID: args[0]})
			if err != nil {
				return describeError(err)
			}
			return a.printChallenge(res)
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its database are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			res, err := a.client().GetReadiness(ctx)
			if res == nil {
				return err
			}
			if a.output == "json" {
				if werr := writeJSON(a.stdout, res); werr != nil {
					return werr
				}
				return err
			}
			fmt.Fprintf(a.stdout, "status:  %s\n", res.Status)
			if res.Version != "" {
				fmt.Fprintf(a.stdout, "version: %s\n", res.Version)
			}
			if res.Checks != nil {
				fmt.Fprintf(a.stdout, "database: %s\n", res.Checks.Database)
			}
			return err
		},
	}
}

func (a *app) printChallenge(res *otpsdk.ChallengeResponse) error {
	if a.output == "json" {
		return writeJSON(a.stdout, res)
	}
	fmt.Fprintf(a.stdout, "challenge_id: %s\n", res.ChallengeID)
	fmt.Fprintf(a.stdout, "target_kind:  %s\n", res.TargetKind)
	fmt.Fprintf(a.stdout, "expires_at:   %s\n", res.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(a.stdout, "attempts:     %d\n", res.AttemptsRemaining)
	fmt.Fprintf(a.stdout, "delivery:     %s via %s\n", res.Delivery.Status, res.Delivery.Channel)
	if res.Delivery.Warning != "" {
		fmt.Fprintf(a.stdout, "warning:      %s\n", res.Delivery.Warning)
	}
	if res.Code != "" {
		fmt.Fprintf(a.stdout, "code:         %s\n", res.Code)
	}
	return nil
}

// describeError adds the attempt count to API errors that carry one.
func describeError(err error) error {
	var apiErr *otpsdk.APIError
	if !errors.As(err, &apiErr) || apiErr.AttemptsRemaining == nil {
		return err
	}
	return fmt.Errorf("%w (%d attempts remaining)", err, *apiErr.AttemptsRemaining)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
