package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Klingon-tech/btcsend/internal/chain"
	"github.com/Klingon-tech/btcsend/internal/rpc"
)

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the current account address and balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var addr rpc.WalletCurrentAddressResult
			if err := call(cmd, "wallet_currentAddress", nil, &addr); err != nil {
				return err
			}
			var bal rpc.WalletBalanceResult
			if err := call(cmd, "wallet_balance", nil, &bal); err != nil {
				return err
			}
			w := out(cmd)
			printField(w, "Network", addr.Network)
			printField(w, "Address", cyan(addr.Address))
			printField(w, "Path", addr.Path)
			printField(w, "Balance", greenBold(bal.Formatted))
			return nil
		},
	}
}

func maxSpendCmd() *cobra.Command {
	var recipient string
	cmd := &cobra.Command{
		Use:   "max-spend",
		Short: "Show the most that can be sent after fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.WalletMaxSpendResult
			if err := call(cmd, "wallet_maxSpend", &rpc.WalletMaxSpendParams{Recipient: recipient}, &res); err != nil {
				return err
			}
			w := out(cmd)
			printField(w, "Spendable", greenBold(res.Spendable))
			printField(w, "Fee", fmt.Sprintf("%d sats (%d sat/vB)", res.Fee, res.FeeRate))
			return nil
		},
	}
	cmd.Flags().StringVar(&recipient, "to", "", "recipient address")
	return cmd
}

func networkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network [name]",
		Short: "Show or switch the wallet network",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var info rpc.NetworkInfo
			if len(args) == 1 {
				err := call(cmd, "network_switch", &rpc.NetworkSwitchParams{Network: chain.Network(args[0])}, &info)
				if err != nil {
					return err
				}
			} else if err := call(cmd, "network_current", nil, &info); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "%s (%s)\n", whiteBold(info.Name), info.Network)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List supported networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rpc.NetworkListResult
			if err := call(cmd, "network_list", nil, &res); err != nil {
				return err
			}
			for _, n := range res.Networks {
				marker := " "
				if n.Network == res.Current {
					marker = green("*")
				}
				fmt.Fprintf(out(cmd), "%s %-8s %s\n", marker, n.Network, n.Name)
			}
			return nil
		},
	})
	return cmd
}
