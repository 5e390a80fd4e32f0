package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/tokenlaunch/internal/ui"
	"github.com/Mohsinsiddi/tokenlaunch/internal/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage the local wallet's signing keys",
	Long: `tokenlaunch signs with keys it keeps in your OS keychain. Add an existing
key or generate a new one, then run "tokenlaunch connect".`,
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Import a private key",
	Long: `Import a hex private key. Without --key you are prompted for it; the key
is not echoed when the terminal supports it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()

		key := walletKeyFlag
		if key == "" {
			var err error
			if key, err = readSecret(cmd, "Private key (hex): "); err != nil {
				return err
			}
		}

		mgr := newWalletManager()
		w, err := mgr.AddWithKey(name, key)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet %q added: %s", name, ui.Addr(w.Address))))
		if len(mgr.List()) > 1 {
			fmt.Fprintln(out, ui.Hint(fmt.Sprintf("Set as default with: tokenlaunch wallet use %s", name)))
		}
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a new EVM wallet",
	Long: `Generate a brand-new EVM keypair and store the private key in the OS keychain.

The private key is displayed ONCE immediately after creation. Copy it into a
password manager.

Re-export later with: tokenlaunch wallet export <name>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()
		mgr := newWalletManager()
		w, err := mgr.Generate(name)
		if err != nil {
			return err
		}
		hexKey, err := mgr.ExportKey(name)
		if err != nil {
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %s  %s\n", ui.Meta("Wallet :"), ui.Val(w.Name))
		fmt.Fprintf(out, "  %s  %s\n\n", ui.Meta("Address:"), ui.Addr(w.Address))
		fmt.Fprintln(out, ui.DangerBox(
			ui.Warn("SAVE YOUR PRIVATE KEY. It is shown only once. Never share it.")+"\n\n"+
				ui.Val(hexKey)+"\n\n"+
				ui.Hint("Fund this address with gas before deploying."),
		))
		fmt.Fprintln(out, ui.Hint("Re-export anytime: tokenlaunch wallet export "+name))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		mgr := newWalletManager()
		wallets := mgr.List()
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Info("No wallets yet."))
			fmt.Fprintln(out, ui.Hint("Create one with: tokenlaunch wallet generate deployer"))
			return nil
		}

		grants := wallet.NewGrants(grantsPath())
		def := mgr.Default()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Default", Width: 8},
			{Title: "Connected", Width: 10},
		})
		for _, w := range wallets {
			isDef, granted := "", ""
			if def != nil && def.Name == w.Name {
				isDef = "✓"
			}
			if grants.Has(w.Address) {
				granted = "✓"
			}
			t.AddRow(ui.Row{w.Name, w.Address, isDef, granted})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d wallet(s)", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and delete its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()
		mgr := newWalletManager()
		w, err := mgr.Get(name)
		if err != nil {
			return fmt.Errorf("wallet %q: %w", name, err)
		}
		if !assumeYes && !prompterFor(cmd).ConfirmDanger(fmt.Sprintf("Remove wallet %q and delete its key?", name)) {
			fmt.Fprintln(out, ui.Meta("Cancelled."))
			return nil
		}
		if err := mgr.Remove(name); err != nil {
			return err
		}
		_ = wallet.NewGrants(grantsPath()).Remove(w.Address)
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Long:  "The default wallet is offered first when connecting, so it becomes the connected account.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			return fmt.Errorf("wallet %q: %w", name, err)
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Show the private key of a wallet",
	Long: `Retrieve and display the stored private key.

You must type the wallet name exactly to confirm before the key is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, ui.Warn("You are about to reveal a private key. Keep it secret."))
		input, err := prompterFor(cmd).Input(fmt.Sprintf("Type wallet name %q to confirm", name), "")
		if err != nil {
			return err
		}
		if input != name {
			fmt.Fprintln(out, ui.Err("Name mismatch, export cancelled."))
			return nil
		}

		hexKey, err := newWalletManager().ExportKey(name)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.DangerBox(
			ui.Warn("PRIVATE KEY. Do not share this with anyone.")+"\n\n"+ui.Val(hexKey),
		))
		return nil
	},
}

// readSecret reads a line without echo from a terminal, or a plain line
// from any other input.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return prompterFor(cmd).ReadLine(prompt)
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (prompted for when omitted)")
	walletCmd.AddCommand(walletAddCmd, walletGenerateCmd, walletListCmd, walletRemoveCmd, walletUseCmd, walletExportCmd)
}
