package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

// Version and Commit are set at build time via ldflags.
var (
	Version = "v0.1.0"
	Commit  = "dev"
)

type app struct {
	server  string
	timeout time.Duration
	output  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(in, out, errOut)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{
		stdin:  in,
		stdout: out,
		stderr: errOut,
	}

	server := os.Getenv("OTPCTL_SERVER")
	if server == "" {
		server = defaultServer
	}

	cmd := &cobra.Command{
		Use:           "otpctl",
		Short:         "Request and verify one-time codes against an otpgate server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringVar(&a.server, "server", server, "otpgate base URL (env OTPCTL_SERVER)")
	cmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "text", "output format: text or json")

	cmd.AddCommand(
		newRequestCmd(a),
		newVerifyCmd(a),
		newResendCmd(a),
		newFlowCmd(a),
		newHealthCmd(a),
	)

	cmd.SetVersionTemplate(fmt.Sprintf("otpctl {{.Version}} (commit %s)\n", Commit))
	return cmd
}

func (a *app) client() *otpsdk.SDKClient {
	c := otpsdk.NewSDKClient(a.server)
	c.HTTPClient.Timeout = a.timeout
	return c
}

func (a *app) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, a.timeout)
}
