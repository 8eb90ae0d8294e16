// Package commands implements the btcsend command tree.
package commands

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/btcsend/internal/rpc"
)

var (
	rpcURL  string
	timeout time.Duration
	noColor bool

	client *rpc.Client
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "btcsend",
		Short:         "Fill in, check and preview Bitcoin sends through btcsendd",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setColor(!noColor)
			client = rpc.NewClient(rpcURL)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rpcURL, "rpc", rpc.DefaultURL, "daemon JSON-RPC URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		stateCmd(),
		validateCmd(),
		previewCmd(),
		ackFeeCmd(),
		cancelFeeCmd(),
		resolveCmd(),
		historyCmd(),
		balanceCmd(),
		maxSpendCmd(),
		networkCmd(),
	)
	return root
}

// call runs one RPC with the configured timeout.
func call(cmd *cobra.Command, method string, params, result interface{}) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return client.Call(ctx, method, params, result)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
