package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/btcsend/internal/rpc"
	"github.com/Klingon-tech/btcsend/internal/sendform"
	"github.com/Klingon-tech/btcsend/internal/storage"
)

var formValues sendform.Values

// addValueFlags binds the form fields to cmd.
func addValueFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&formValues.Amount, "amount", "", "amount in BTC")
	cmd.Flags().StringVar(&formValues.RecipientAddressOrBnsName, "to", "", "recipient address or BNS name")
	cmd.Flags().Uint64Var(&formValues.Fee, "fee", 0, "fee in satoshis (default: estimated)")
	cmd.Flags().Uint64Var(&formValues.FeeRate, "fee-rate", 0, "fee rate in sat/vB (default: backend estimate)")
}

func stateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the send form state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var state sendform.FormState
			if err := call(cmd, "sendform_state", nil, &state); err != nil {
				return err
			}
			w := out(cmd)
			fmt.Fprintln(w, whiteBold("Send form"))
			printField(w, "Form", state.FormID)
			printField(w, "Network", state.Network)
			drawer := green("closed")
			if state.HighFeeConfirmation {
				drawer = amber("open")
			}
			printField(w, "High fee", drawer)

			var saved rpc.SendformRestoreStateResult
			if err := call(cmd, "sendform_restoreState", nil, &saved); err == nil && saved.Found && saved.Values != nil {
				printField(w, "Amount", saved.Values.Amount)
				printField(w, "To", saved.Values.RecipientAddressOrBnsName)
			}
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check form values without building a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := formValues
			if values.Recipient == "" && values.RecipientAddressOrBnsName != "" {
				var resolved rpc.SendformResolveRecipientResult
				err := call(cmd, "sendform_resolveRecipient",
					&rpc.SendformResolveRecipientParams{Input: values.RecipientAddressOrBnsName}, &resolved)
				if err == nil {
					values.Recipient = resolved.Address
				}
			}

			var res rpc.SendformValidateResult
			if err := call(cmd, "sendform_validate", &values, &res); err != nil {
				return err
			}
			w := out(cmd)
			if res.Valid {
				fmt.Fprintln(w, green("Form is valid"))
				return nil
			}
			fmt.Fprintln(w, red("Form has errors"))
			printErrors(w, res.Errors)
			return fmt.Errorf("form has %d error(s)", len(res.Errors))
		},
	}
	addValueFlags(cmd)
	return cmd
}

func runPreview(cmd *cobra.Command) error {
	if err := call(cmd, "sendform_saveState", &formValues, nil); err != nil {
		return err
	}
	var res sendform.PreviewResult
	if err := call(cmd, "sendform_preview", &formValues, &res); err != nil {
		return err
	}
	printPreview(out(cmd), &res)
	return nil
}

func previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Validate the form and build the transaction for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd)
		},
	}
	addValueFlags(cmd)
	return cmd
}

func ackFeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ack-fee",
		Short: "Accept a high fee and continue the preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var state sendform.FormState
			if err := call(cmd, "sendform_state", nil, &state); err != nil {
				return err
			}
			if !state.HighFeeConfirmation {
				return fmt.Errorf("no high fee confirmation is pending")
			}
			return runPreview(cmd)
		},
	}
	addValueFlags(cmd)
	return cmd
}

func cancelFeeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-fee",
		Short: "Dismiss the high fee confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.DrawersStateResult
			err := call(cmd, "drawers_setHighFeeConfirmation",
				&rpc.DrawersSetHighFeeConfirmationParams{Showing: false}, &res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), green("High fee confirmation dismissed"))
			return nil
		},
	}
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <address-or-name>",
		Short: "Resolve a recipient to a Bitcoin address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.SendformResolveRecipientResult
			err := call(cmd, "sendform_resolveRecipient",
				&rpc.SendformResolveRecipientParams{Input: args[0]}, &res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), res.Address)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent transaction previews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.SendformPreviewsResult
			if err := call(cmd, "sendform_previews", &rpc.SendformPreviewsParams{Limit: limit}, &res); err != nil {
				return err
			}
			w := out(cmd)
			if res.Count == 0 {
				fmt.Fprintln(w, "No previews")
				return nil
			}
			for _, p := range res.Previews {
				printPreviewRecord(cmd, p)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of previews to show")
	return cmd
}

func printPreviewRecord(cmd *cobra.Command, p *storage.PreviewRecord) {
	fmt.Fprintf(out(cmd), "%s  %-8s %s  %d sats\n",
		p.CreatedAt.Local().Format("2006-01-02 15:04:05"), p.Network, p.Recipient, p.Fee)
}
