package cmd

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List networks and switch the wallet between them",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		networks, _, err := buildNetworks(cfg)
		if err != nil {
			return err
		}
		known := walletChains()
		active := cfg.ActiveChain
		if !slices.Contains(known, active) {
			active = slices.Min(known)
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 12},
			{Title: "Display", Width: 20},
			{Title: "Chain ID", Width: 10},
			{Title: "Currency", Width: 8},
			{Title: "Wallet", Width: 8},
			{Title: "RPC", Width: 40},
		})
		for _, n := range networks.All() {
			mark := ""
			switch {
			case n.ChainID == active:
				mark = "active"
			case slices.Contains(known, n.ChainID):
				mark = "added"
			}
			name := n.Name
			if n.Name == cfg.DefaultNetwork {
				name += "*"
			}
			t.AddRow(ui.Row{name, n.DisplayName, strconv.FormatUint(n.ChainID, 10), n.NativeCurrency, mark, n.RPCURL})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks · * default for deploy · wallet column shows chains added to your wallet", len(networks.All()))))
		return nil
	},
}

var networkSwitchCmd = &cobra.Command{
	Use:   "switch [network]",
	Short: "Switch the wallet to another network",
	Long: `Switch the connected wallet to a network, by name or chain ID. A network
the wallet has not seen yet is added first, with your approval.

Without an argument an interactive picker is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.DeployTimeout)
		defer cancel()

		sess, err := a.ensureConnected(ctx)
		if err != nil {
			return err
		}

		var ref string
		if len(args) == 1 {
			ref = args[0]
		}
		return a.switchTo(ctx, ref, sess.ChainID)
	},
}

// switchTo moves the wallet to the network ref names, or to one picked
// interactively when ref is empty.
func (a *app) switchTo(ctx context.Context, ref string, current uint64) error {
	if ref == "" {
		if !interactive() {
			return fmt.Errorf("network required: tokenlaunch network switch <name|chain-id>")
		}
		var err error
		ref, err = ui.PickItem("Switch network", ui.NetworkItems(a.networks.All(), current))
		if err != nil {
			return err
		}
		if ref == "" {
			fmt.Fprintln(a.out, ui.Meta("Cancelled."))
			return nil
		}
	}

	n, err := a.networks.Resolve(ref)
	if err != nil {
		return fmt.Errorf("unknown network %q, run `tokenlaunch network list`: %w", ref, err)
	}
	if n.ChainID == current {
		fmt.Fprintln(a.out, ui.Info("Already on "+networkLabel(n)+"."))
		return nil
	}
	return shown(a.session.SwitchNetwork(ctx, n.ChainID))
}

var networkUseCmd = &cobra.Command{
	Use:   "use <network>",
	Short: "Set the default network for deployments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := chain.NewRegistry().Resolve(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q, run `tokenlaunch network list`", args[0])
		}
		cfg.DefaultNetwork = n.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default network set to %s", ui.ChainName(n.DisplayName))))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkSwitchCmd, networkUseCmd)
}
