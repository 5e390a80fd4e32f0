package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/tokenlaunch/internal/backend"
	"github.com/Mohsinsiddi/tokenlaunch/internal/chain"
	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/sync"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List tokens deployed from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		df, err := cfg.LoadDeployments()
		if err != nil {
			return fmt.Errorf("reading deployments: %w", err)
		}
		if len(df.Deployments) == 0 {
			fmt.Fprintln(out, ui.Info("No deployments yet."))
			return nil
		}

		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Date", Width: 16},
			{Title: "Symbol", Width: 10},
			{Title: "Name", Width: 20},
			{Title: "Network", Width: 18},
			{Title: "Contract", Width: 42},
			{Title: "Launchpad", Width: 11},
		})
		for _, d := range df.Deployments {
			network := d.Network
			if n, err := reg.ByChainID(d.ChainID); err == nil {
				network = n.DisplayName
			} else if network == "" {
				network = "chain " + strconv.FormatUint(d.ChainID, 10)
			}
			date := d.DeployedAt
			if ts, err := time.Parse(time.RFC3339, d.DeployedAt); err == nil {
				date = ts.Local().Format("2006-01-02 15:04")
			}
			published := "pending"
			switch {
			case d.Unconfirmed:
				published = "unconfirmed"
			case d.Published:
				published = "✓"
			}
			t.AddRow(ui.Row{date, d.Symbol, d.Name, network, d.ContractAddress, published})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d deployment(s) · %s", len(df.Deployments), cfg.Dir())))
		return nil
	},
}

var historySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Send deployments the launchpad has not received yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg.BackendURL == "" {
			return fmt.Errorf("no launchpad configured, set one with: tokenlaunch config set backend_url <url>")
		}
		s := sync.New(cfg, backend.New(cfg.BackendURL, backend.WithToken(cfg.Token())),
			sync.WithLogger(logger.Named("sync")))

		pending, err := s.Pending()
		if err != nil {
			return fmt.Errorf("reading deployments: %w", err)
		}
		if len(pending) == 0 {
			fmt.Fprintln(out, ui.Success("Launchpad is up to date."))
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.BackendTimeout*time.Duration(len(pending)))
		defer cancel()

		sp := ui.NewSpinnerTo(out, fmt.Sprintf("Sending %d deployment(s)...", len(pending)))
		sp.Start()
		res, err := s.Run(ctx)
		sp.Stop()
		if res != nil {
			for _, d := range res.Published {
				fmt.Fprintln(out, ui.Success(d.Symbol+" saved to the launchpad."))
			}
			for _, f := range res.Failed {
				fmt.Fprintln(out, ui.Err(f.Deployment.Symbol+": "+f.Err.Error()))
			}
		}
		if err != nil {
			return err
		}
		if len(res.Failed) > 0 {
			return shown(fmt.Errorf("%d deployment(s) not accepted: %w", len(res.Failed), res.Err()))
		}
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historySyncCmd)
}
