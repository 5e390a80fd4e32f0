package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/rpc"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
)

// rpcProbe is replaced by tests.
var rpcProbe rpc.Probe = rpc.HeadProbe

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage custom RPC endpoints",
	Long: `Custom endpoints replace a network's built-in RPC. With more than one,
the rpc_algorithm setting decides which is used:

  failover     first endpoint that answers, in the order added (default)
  fastest      lowest latency among endpoints near the chain head
  round-robin  rotate between healthy endpoints`,
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <network> <url>",
	Short: "Add a custom RPC URL for a network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		n, err := reg.Resolve(args[0])
		if err != nil {
			return fmt.Errorf("unknown network %q", args[0])
		}
		if err := reg.SetRPC(n.ChainID, args[1]); err != nil {
			return err
		}
		if err := cfg.AddRPC(n.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(n.DisplayName), args[1])))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC URL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug := args[0]
		if n, err := chain.NewRegistry().Resolve(slug); err == nil {
			slug = n.Name
		}
		if err := cfg.RemoveRPC(slug, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Removed RPC for %s: %s", slug, args[1])))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list <network>",
	Short: "List the RPC endpoints of a network in the order they are tried",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, urls, err := endpointsFor(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.StyleTitle.Render("RPCs for "+n.DisplayName))
		for i, u := range urls {
			label := ui.Meta("(custom)")
			if i == len(urls)-1 {
				label = ui.Meta("(built-in)")
			}
			fmt.Fprintf(out, "  %d. %s %s\n", i+1, u, label)
		}
		fmt.Fprintln(out, ui.Meta("algorithm: "+cfg.RPCAlgorithm))
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark <network>",
	Short: "Measure every RPC endpoint of a network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, urls, err := endpointsFor(args[0])
		if err != nil {
			return err
		}
		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout)
		defer cancel()

		s := ui.NewSpinnerTo(out, fmt.Sprintf("Benchmarking %d %s endpoints...", len(urls), n.DisplayName))
		s.Start()
		results := rpc.Measure(ctx, urls, rpcProbe)
		s.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 44},
			{Title: "Latency", Width: 10},
			{Title: "Block #", Width: 12},
			{Title: "Status", Width: 8},
		})
		for _, r := range results {
			if !r.Healthy() {
				t.AddRow(ui.Row{r.URL, "-", "-", "down"})
				continue
			}
			t.AddRow(ui.Row{r.URL, fmt.Sprintf("%dms", r.Latency.Milliseconds()), fmt.Sprintf("%d", r.Head), "healthy"})
		}
		fmt.Fprintln(out, t.Render())

		winner, err := rpc.NewPicker(algo).Pick(results)
		if err != nil {
			fmt.Fprintln(out, ui.Err("No endpoint answered."))
			return nil
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s would use %s", algo, winner.URL)))
		return nil
	},
}

// endpointsFor returns a network's custom URLs followed by its built-in one.
func endpointsFor(ref string) (*chain.Network, []string, error) {
	n, err := chain.NewRegistry().Resolve(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("unknown network %q", ref)
	}
	urls := append([]string{}, cfg.GetRPCs(n.Name)...)
	urls = append(urls, n.RPCURL)
	return n, urls, nil
}

func init() {
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcBenchmarkCmd)
}
