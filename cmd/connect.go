package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/tokenlaunch/internal/config"
	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect your wallet to tokenlaunch",
	Long: `Ask the wallet for account access. Accounts you approve stay granted
across runs until you disconnect, so later commands connect silently.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.DeployTimeout)
		defer cancel()

		restored, err := a.session.Restore(ctx)
		if err != nil {
			return err
		}
		if restored {
			fmt.Fprintln(a.out, ui.Info("Already connected."))
			return nil
		}
		if _, err := a.session.Connect(ctx); err != nil {
			return shown(err)
		}
		fmt.Fprintln(a.out, ui.Hint("Deploy a token with: tokenlaunch deploy --name <name> --symbol <SYM> --supply <n>"))
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Revoke tokenlaunch's access to your wallet accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		if a.keyed == nil {
			fmt.Fprintln(a.out, ui.Meta("No wallet configured."))
			return nil
		}
		if err := a.keyed.Lock(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, ui.Success("Access revoked. The next command will ask to connect again."))
		return nil
	},
}
